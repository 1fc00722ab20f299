package explain

import (
	"errors"
	"fmt"
	"strings"
)

// Language is an output language for explanations.
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
	French  Language = "fr"
)

// Languages lists every supported output language.
var Languages = []Language{English, Spanish, French}

// ParseLanguage maps a language code or name to a Language. Unknown values
// fall back to English.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "es", "spanish", "español", "espanol":
		return Spanish
	case "fr", "french", "français", "francais":
		return French
	}
	return English
}

// Name is the English name of the language, used in prompts.
func (l Language) Name() string {
	switch l {
	case Spanish:
		return "Spanish"
	case French:
		return "French"
	}
	return "English"
}

// MessageKey names a localized user-facing message.
type MessageKey int

const (
	MsgCouldNotVerify MessageKey = iota
	MsgFilteredNote
	MsgNotFound
	MsgNoFeatures
	MsgFeatureHeading
	MsgSignals
	MsgWhy
	MsgRoutes
	MsgEvidence
	MsgProviderFallback
	MsgFailure
	numMessageKeys
)

var messages = [numMessageKeys]map[Language]string{
	MsgCouldNotVerify: {
		English: "I could not verify an answer from the retrieved snippets.",
		Spanish: "No pude verificar una respuesta a partir de los fragmentos recuperados.",
		French:  "Je n'ai pas pu vérifier une réponse à partir des extraits récupérés.",
	},
	MsgFilteredNote: {
		English: "Note: statements that could not be traced to the retrieved code were removed.",
		Spanish: "Nota: se eliminaron afirmaciones que no se pudieron rastrear en el código recuperado.",
		French:  "Remarque : les affirmations introuvables dans le code récupéré ont été supprimées.",
	},
	MsgNotFound: {
		English: "Not found in retrieved snippets.",
		Spanish: "No se encontró en los fragmentos recuperados.",
		French:  "Introuvable dans les extraits récupérés.",
	},
	MsgNoFeatures: {
		English: "No recognizable feature patterns were found in the retrieved code.",
		Spanish: "No se encontraron patrones de funcionalidades reconocibles en el código recuperado.",
		French:  "Aucun motif de fonctionnalité reconnaissable n'a été trouvé dans le code récupéré.",
	},
	MsgFeatureHeading: {
		English: "Key features detected in the retrieved code:",
		Spanish: "Funcionalidades clave detectadas en el código recuperado:",
		French:  "Fonctionnalités clés détectées dans le code récupéré :",
	},
	MsgSignals: {
		English: "Implementation signals",
		Spanish: "Señales de implementación",
		French:  "Indices d'implémentation",
	},
	MsgWhy: {
		English: "Why it matters",
		Spanish: "Por qué importa",
		French:  "Pourquoi c'est important",
	},
	MsgRoutes: {
		English: "Routes",
		Spanish: "Rutas",
		French:  "Routes",
	},
	MsgEvidence: {
		English: "Evidence",
		Spanish: "Evidencia",
		French:  "Preuves",
	},
	MsgProviderFallback: {
		English: "The language model was unavailable. These facts were observed directly in the retrieved code:",
		Spanish: "El modelo de lenguaje no estaba disponible. Estos hechos se observaron directamente en el código recuperado:",
		French:  "Le modèle de langage était indisponible. Ces faits ont été observés directement dans le code récupéré :",
	},
	MsgFailure: {
		English: "The explanation could not be generated: %s",
		Spanish: "No se pudo generar la explicación: %s",
		French:  "L'explication n'a pas pu être générée : %s",
	},
}

// Message returns the text for key in lang, falling back to English.
func Message(key MessageKey, lang Language) string {
	if key < 0 || key >= numMessageKeys {
		return ""
	}
	if s, ok := messages[key][lang]; ok {
		return s
	}
	return messages[key][English]
}

// ValidateCatalog checks that every message and feature rule carries text
// for every supported language.
func ValidateCatalog() error {
	var errs []error
	for key, byLang := range messages {
		for _, lang := range Languages {
			if strings.TrimSpace(byLang[lang]) == "" {
				errs = append(errs, fmt.Errorf("message %d: missing %s text", key, lang))
			}
		}
	}
	seen := make(map[FeatureID]bool)
	for _, r := range featureRules {
		if seen[r.ID] {
			errs = append(errs, fmt.Errorf("feature %s: duplicate rule", r.ID))
		}
		seen[r.ID] = true
		if len(r.Signals) == 0 || r.Weight <= 0 {
			errs = append(errs, fmt.Errorf("feature %s: needs signals and a positive weight", r.ID))
		}
		for _, lang := range Languages {
			if strings.TrimSpace(r.Label[lang]) == "" || strings.TrimSpace(r.Why[lang]) == "" {
				errs = append(errs, fmt.Errorf("feature %s: missing %s text", r.ID, lang))
			}
		}
	}
	return errors.Join(errs...)
}
