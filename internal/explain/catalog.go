package explain

// FeatureID names a feature-detection rule.
type FeatureID string

const (
	FeatureRouting         FeatureID = "routing"
	FeatureLoadingStates   FeatureID = "loading_states"
	FeatureStateManagement FeatureID = "state_management"
	FeatureDataFetching    FeatureID = "data_fetching"
	FeatureAuthentication  FeatureID = "authentication"
	FeatureForms           FeatureID = "forms"
	FeatureSearchFilter    FeatureID = "search_filter"
	FeatureLazyLoading     FeatureID = "lazy_loading"
	FeatureErrorHandling   FeatureID = "error_handling"
)

// FeatureRule detects one kind of user-facing feature. Signals are matched
// case-insensitively against snippet content and shown as written here;
// PathHints are matched against the lower-cased path.
type FeatureRule struct {
	ID        FeatureID
	Signals   []string
	PathHints []string
	Weight    float64
	Label     map[Language]string
	Why       map[Language]string
}

var featureRules = []FeatureRule{
	{
		ID:        FeatureRouting,
		Signals:   []string{"createBrowserRouter", "BrowserRouter", "RouterProvider", "<Route", "useNavigate", "useParams", "<Link", "react-router"},
		PathHints: []string{"router", "routes", "/pages/"},
		Weight:    1.3,
		Label: map[Language]string{
			English: "Client-side routing",
			Spanish: "Enrutamiento del lado del cliente",
			French:  "Routage côté client",
		},
		Why: map[Language]string{
			English: "Maps URLs to screens so users can navigate without full page reloads.",
			Spanish: "Asocia URL con pantallas para navegar sin recargar la página completa.",
			French:  "Associe les URL aux écrans pour naviguer sans recharger toute la page.",
		},
	},
	{
		ID:        FeatureLoadingStates,
		Signals:   []string{"Shimmer", "Skeleton", "Spinner", "isLoading", "Loader"},
		PathHints: []string{"shimmer", "skeleton", "loader", "spinner", "loading"},
		Weight:    1.1,
		Label: map[Language]string{
			English: "Loading states",
			Spanish: "Estados de carga",
			French:  "États de chargement",
		},
		Why: map[Language]string{
			English: "Shows placeholder UI while data is loading, which keeps the interface responsive.",
			Spanish: "Muestra una interfaz provisional mientras se cargan los datos.",
			French:  "Affiche une interface provisoire pendant le chargement des données.",
		},
	},
	{
		ID:        FeatureStateManagement,
		Signals:   []string{"useState", "useReducer", "createContext", "useContext", "createSlice", "useSelector", "configureStore", "zustand"},
		PathHints: []string{"/store/", "/context/", "slice", "reducer"},
		Weight:    1.0,
		Label: map[Language]string{
			English: "State management",
			Spanish: "Gestión del estado",
			French:  "Gestion de l'état",
		},
		Why: map[Language]string{
			English: "Keeps UI data consistent as users interact with the app.",
			Spanish: "Mantiene coherentes los datos de la interfaz durante la interacción.",
			French:  "Garde les données de l'interface cohérentes pendant l'utilisation.",
		},
	},
	{
		ID:        FeatureDataFetching,
		Signals:   []string{"fetch(", "axios", "useEffect", "useQuery", "useSWR"},
		PathHints: []string{"/api/", "/services/", "/hooks/"},
		Weight:    1.0,
		Label: map[Language]string{
			English: "Data fetching",
			Spanish: "Obtención de datos",
			French:  "Récupération des données",
		},
		Why: map[Language]string{
			English: "Loads remote data that the screens render.",
			Spanish: "Carga los datos remotos que muestran las pantallas.",
			French:  "Charge les données distantes affichées par les écrans.",
		},
	},
	{
		ID:        FeatureAuthentication,
		Signals:   []string{"login", "logout", "signIn", "signUp", "password", "token"},
		PathHints: []string{"auth", "login", "session"},
		Weight:    1.2,
		Label: map[Language]string{
			English: "Authentication",
			Spanish: "Autenticación",
			French:  "Authentification",
		},
		Why: map[Language]string{
			English: "Identifies users and protects pages that need a signed-in account.",
			Spanish: "Identifica a los usuarios y protege las páginas que requieren sesión.",
			French:  "Identifie les utilisateurs et protège les pages nécessitant une connexion.",
		},
	},
	{
		ID:        FeatureForms,
		Signals:   []string{"<form", "onSubmit", "onChange", "<input", "useForm"},
		PathHints: []string{"form"},
		Weight:    0.9,
		Label: map[Language]string{
			English: "Forms and user input",
			Spanish: "Formularios y entrada de usuario",
			French:  "Formulaires et saisie utilisateur",
		},
		Why: map[Language]string{
			English: "Collects and validates what users type.",
			Spanish: "Recoge y valida lo que escriben los usuarios.",
			French:  "Collecte et valide ce que saisissent les utilisateurs.",
		},
	},
	{
		ID:        FeatureSearchFilter,
		Signals:   []string{"search", "filter(", "searchText", "sort("},
		PathHints: []string{"search", "filter"},
		Weight:    0.9,
		Label: map[Language]string{
			English: "Search and filtering",
			Spanish: "Búsqueda y filtrado",
			French:  "Recherche et filtrage",
		},
		Why: map[Language]string{
			English: "Lets users narrow large lists to what they need.",
			Spanish: "Permite reducir listas grandes a lo que el usuario necesita.",
			French:  "Permet de réduire de longues listes à l'essentiel.",
		},
	},
	{
		ID:        FeatureLazyLoading,
		Signals:   []string{"lazy(", "Suspense", "import("},
		PathHints: []string{"lazy"},
		Weight:    1.0,
		Label: map[Language]string{
			English: "Lazy loading",
			Spanish: "Carga diferida",
			French:  "Chargement différé",
		},
		Why: map[Language]string{
			English: "Splits code so parts of the app load only when needed.",
			Spanish: "Divide el código para cargar partes de la app solo cuando se necesitan.",
			French:  "Découpe le code pour ne charger certaines parties qu'au besoin.",
		},
	},
	{
		ID:        FeatureErrorHandling,
		Signals:   []string{"try {", "catch", "ErrorBoundary", "errorElement", "useRouteError", "throw new Error"},
		PathHints: []string{"error"},
		Weight:    0.9,
		Label: map[Language]string{
			English: "Error handling",
			Spanish: "Manejo de errores",
			French:  "Gestion des erreurs",
		},
		Why: map[Language]string{
			English: "Shows a useful message instead of a blank screen when something fails.",
			Spanish: "Muestra un mensaje útil en lugar de una pantalla vacía cuando algo falla.",
			French:  "Affiche un message utile au lieu d'un écran vide en cas d'échec.",
		},
	},
}

// FeatureRules returns the feature-detection catalog.
func FeatureRules() []FeatureRule { return featureRules }
