// Package templates is the static catalog of starter file trees.
//
// Each supported template kind maps to a generated file tree (plain string
// tables — no I/O, no state). The tree returned by Generate is a snapshot:
// project creation stores it as the project's file blob, and it is never
// regenerated afterwards, even if the project's template field is edited.
package templates

import (
	"fmt"

	"github.com/arnab/codecanvas/internal/model"
)

// Info describes one catalog entry for UI pickers.
type Info struct {
	Name        model.Template `json:"name"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
}

// Available lists every template kind the catalog can generate, in display
// order.
func Available() []Info {
	return []Info{
		{Name: model.TemplateReact, Label: "React", Description: "React with Vite"},
		{Name: model.TemplateNextJS, Label: "Next.js", Description: "Next.js with App Router"},
		{Name: model.TemplateExpress, Label: "Express", Description: "Express.js backend"},
		{Name: model.TemplateVue, Label: "Vue", Description: "Vue 3 with Vite"},
		{Name: model.TemplateHono, Label: "Hono", Description: "Hono - Lightweight web framework"},
		{Name: model.TemplateAngular, Label: "Angular", Description: "Angular standalone components"},
	}
}

// Valid reports whether t names a known template kind.
func Valid(t model.Template) bool {
	switch t {
	case model.TemplateReact, model.TemplateNextJS, model.TemplateExpress,
		model.TemplateVue, model.TemplateHono, model.TemplateAngular:
		return true
	}
	return false
}

// Generate returns the starter file tree for the given template kind.
// Unknown kinds are an error — callers validate with Valid first and map
// this to a 400 at the API boundary.
func Generate(t model.Template) (model.FileTree, error) {
	switch t {
	case model.TemplateReact:
		return reactTemplate(), nil
	case model.TemplateNextJS:
		return nextJSTemplate(), nil
	case model.TemplateExpress:
		return expressTemplate(), nil
	case model.TemplateVue:
		return vueTemplate(), nil
	case model.TemplateHono:
		return honoTemplate(), nil
	case model.TemplateAngular:
		return angularTemplate(), nil
	}
	return nil, fmt.Errorf("templates: unknown template %q", t)
}

func file(name, content string) model.FileNode {
	return model.FileNode{Name: name, Type: model.NodeFile, Content: content}
}

func folder(name string, children model.FileTree) model.FileNode {
	return model.FileNode{Name: name, Type: model.NodeFolder, Children: children}
}

func reactTemplate() model.FileTree {
	return model.FileTree{
		"package.json": file("package.json", `{
  "name": "react-app",
  "version": "1.0.0",
  "type": "module",
  "scripts": {
    "dev": "vite",
    "build": "vite build",
    "preview": "vite preview"
  },
  "dependencies": {
    "react": "^18.2.0",
    "react-dom": "^18.2.0"
  },
  "devDependencies": {
    "@vitejs/plugin-react": "^4.0.0",
    "vite": "^4.0.0"
  }
}`),
		"index.html": file("index.html", `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>React App</title>
</head>
<body>
  <div id="root"></div>
  <script type="module" src="/src/main.tsx"></script>
</body>
</html>`),
		"src": folder("src", model.FileTree{
			"main.tsx": file("main.tsx", `import React from 'react'
import ReactDOM from 'react-dom/client'
import App from './App'

ReactDOM.createRoot(document.getElementById('root')!).render(
  <React.StrictMode>
    <App />
  </React.StrictMode>,
)`),
			"App.tsx": file("App.tsx", `import { useState } from 'react'

function App() {
  const [count, setCount] = useState(0)

  return (
    <div style={{ padding: '20px', fontFamily: 'Arial' }}>
      <h1>Welcome to React</h1>
      <p>Count: {count}</p>
      <button onClick={() => setCount(count + 1)}>
        Increment
      </button>
    </div>
  )
}

export default App`),
		}),
	}
}

func nextJSTemplate() model.FileTree {
	return model.FileTree{
		"package.json": file("package.json", `{
  "name": "nextjs-app",
  "version": "1.0.0",
  "scripts": {
    "dev": "next dev",
    "build": "next build",
    "start": "next start"
  },
  "dependencies": {
    "next": "^14.0.0",
    "react": "^18.2.0",
    "react-dom": "^18.2.0"
  }
}`),
		"app": folder("app", model.FileTree{
			"layout.tsx": file("layout.tsx", `export default function RootLayout({
  children,
}: {
  children: React.ReactNode
}) {
  return (
    <html lang="en">
      <body>{children}</body>
    </html>
  )
}`),
			"page.tsx": file("page.tsx", `export default function Home() {
  return (
    <main style={{ padding: '20px', fontFamily: 'Arial' }}>
      <h1>Welcome to Next.js</h1>
      <p>Edit app/page.tsx to get started.</p>
    </main>
  )
}`),
		}),
	}
}

func expressTemplate() model.FileTree {
	return model.FileTree{
		"package.json": file("package.json", `{
  "name": "express-app",
  "version": "1.0.0",
  "type": "module",
  "scripts": {
    "start": "node index.js",
    "dev": "node --watch index.js"
  },
  "dependencies": {
    "express": "^4.18.0"
  }
}`),
		"index.js": file("index.js", `import express from 'express'

const app = express()
const PORT = process.env.PORT || 3000

app.use(express.json())

app.get('/', (req, res) => {
  res.json({ message: 'Hello from Express!' })
})

app.listen(PORT, () => {
  console.log('Server running on port ' + PORT)
})`),
	}
}

func vueTemplate() model.FileTree {
	return model.FileTree{
		"package.json": file("package.json", `{
  "name": "vue-app",
  "version": "1.0.0",
  "type": "module",
  "scripts": {
    "dev": "vite",
    "build": "vite build",
    "preview": "vite preview"
  },
  "dependencies": {
    "vue": "^3.3.0"
  },
  "devDependencies": {
    "@vitejs/plugin-vue": "^4.0.0",
    "vite": "^4.0.0"
  }
}`),
		"index.html": file("index.html", `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Vue App</title>
</head>
<body>
  <div id="app"></div>
  <script type="module" src="/src/main.js"></script>
</body>
</html>`),
		"src": folder("src", model.FileTree{
			"main.js": file("main.js", `import { createApp } from 'vue'
import App from './App.vue'

createApp(App).mount('#app')`),
			"App.vue": file("App.vue", `<script setup>
import { ref } from 'vue'

const count = ref(0)
</script>

<template>
  <div style="padding: 20px; font-family: Arial">
    <h1>Welcome to Vue</h1>
    <p>Count: {{ count }}</p>
    <button @click="count++">Increment</button>
  </div>
</template>`),
		}),
	}
}

func honoTemplate() model.FileTree {
	return model.FileTree{
		"package.json": file("package.json", `{
  "name": "hono-app",
  "version": "1.0.0",
  "type": "module",
  "scripts": {
    "dev": "tsx watch src/index.ts"
  },
  "dependencies": {
    "hono": "^3.0.0",
    "@hono/node-server": "^1.0.0"
  },
  "devDependencies": {
    "tsx": "^4.0.0"
  }
}`),
		"src": folder("src", model.FileTree{
			"index.ts": file("index.ts", `import { Hono } from 'hono'
import { serve } from '@hono/node-server'

const app = new Hono()

app.get('/', (c) => c.json({ message: 'Hello from Hono!' }))

serve({ fetch: app.fetch, port: 3000 }, (info) => {
  console.log('Server running on port ' + info.port)
})`),
		}),
	}
}

func angularTemplate() model.FileTree {
	return model.FileTree{
		"package.json": file("package.json", `{
  "name": "angular-app",
  "version": "1.0.0",
  "scripts": {
    "start": "ng serve",
    "build": "ng build"
  },
  "dependencies": {
    "@angular/common": "^17.0.0",
    "@angular/core": "^17.0.0",
    "@angular/platform-browser": "^17.0.0",
    "rxjs": "^7.8.0",
    "zone.js": "^0.14.0"
  }
}`),
		"src": folder("src", model.FileTree{
			"main.ts": file("main.ts", `import { bootstrapApplication } from '@angular/platform-browser'
import { AppComponent } from './app.component'

bootstrapApplication(AppComponent).catch((err) => console.error(err))`),
			"app.component.ts": file("app.component.ts", `import { Component } from '@angular/core'

@Component({
  selector: 'app-root',
  standalone: true,
  template: ` + "`" + `
    <div style="padding: 20px; font-family: Arial">
      <h1>Welcome to Angular</h1>
      <p>Count: {{ count }}</p>
      <button (click)="count = count + 1">Increment</button>
    </div>
  ` + "`" + `,
})
export class AppComponent {
  count = 0
}`),
		}),
	}
}
