package retrieval

import "reposcope/internal/index"

const viteConfig = `import { defineConfig } from 'vite'
import react from '@vitejs/plugin-react'

// https://vitejs.dev/config/
export default defineConfig({
  plugins: [react()],
  build: { outDir: 'dist' },
})`

const routerSource = `import { createBrowserRouter } from "react-router-dom";
import Home from "./pages/Home";
import Menu from "./components/Menu";

const appRouter = createBrowserRouter([
  { path: "/", element: <Home /> },
  { path: "/restaurant/:resId", element: <Menu /> },
]);

export default appRouter;`

const shimmerSource = `const Shimmer = () => {
  return (
    <div className="shimmer-container">
      {Array(10).fill("").map((_, i) => (
        <div key={i} className="shimmer-card"></div>
      ))}
    </div>
  );
};
export default Shimmer;`

const homeSource = `import { useState, useEffect } from "react";
import Shimmer from "../components/Shimmer";

const Home = () => {
  const [list, setList] = useState([]);
  useEffect(() => {
    fetch("/api/restaurants").then((r) => r.json()).then(setList);
  }, []);
  if (list.length === 0) return <Shimmer />;
  return (
    <div className="body">
      {list.map((r) => <div key={r.id}>{r.name}</div>)}
    </div>
  );
};
export default Home;`

const headerSource = `import { Link } from "react-router-dom";
const Header = () => (
  <div className="header">
    <Link to="/">Home</Link>
  </div>
);
export default Header;`

func chunk(id int, path, content string) index.CodeChunk {
	return index.CodeChunk{
		ID:        id,
		FilePath:  path,
		Content:   content,
		StartLine: 1,
		EndLine:   20,
		Language:  "javascript",
		ChunkType: "block",
	}
}

// appChunks is a small React app: a build config, the router, a loading
// placeholder and a page.
func appChunks() []index.CodeChunk {
	return []index.CodeChunk{
		chunk(0, "vite.config.js", viteConfig),
		chunk(1, "src/router.jsx", routerSource),
		chunk(2, "src/components/Shimmer.jsx", shimmerSource),
		chunk(3, "src/pages/Home.jsx", homeSource),
	}
}

func paths(scored []ScoredChunk) []string {
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.Chunk.FilePath
	}
	return out
}
