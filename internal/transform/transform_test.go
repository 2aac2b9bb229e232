package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLowersJSX(t *testing.T) {
	res, err := File("/App.jsx", `
import React from 'react'
export default function App() {
  return <div className="app">hello</div>
}
`)
	require.NoError(t, err)

	assert.False(t, res.IsStyle)
	assert.Contains(t, res.Code, "React.createElement")
	assert.NotContains(t, res.Code, "<div", "output must not contain JSX literals")
	assert.Equal(t, []string{"react"}, res.Imports)
}

func TestFileErasesTypes(t *testing.T) {
	res, err := File("/util.ts", `
export function add(a: number, b: number): number {
  return a + b
}
`)
	require.NoError(t, err)
	assert.NotContains(t, res.Code, "number")
}

func TestFileTSX(t *testing.T) {
	res, err := File("/Button.tsx", `
import React from 'react'
type Props = { label: string }
export const Button = ({ label }: Props) => <button>{label}</button>
`)
	require.NoError(t, err)
	assert.Contains(t, res.Code, "React.createElement")
	assert.NotContains(t, res.Code, "Props")
}

func TestFileStyle(t *testing.T) {
	res, err := File("/styles.css", ".app { color: red }")
	require.NoError(t, err)

	assert.True(t, res.IsStyle)
	assert.Equal(t, ".app { color: red }", res.StyleText)
	assert.Empty(t, res.Code)
	assert.Empty(t, res.Imports)
}

func TestFileSyntaxError(t *testing.T) {
	_, err := File("/broken.jsx", "export default function App() { return <div> }")
	require.Error(t, err)

	serr, ok := err.(*SyntaxError)
	require.True(t, ok, "expected *SyntaxError, got %T", err)
	assert.Equal(t, "/broken.jsx", serr.Path)
	assert.NotEmpty(t, serr.Msg)
	assert.Contains(t, serr.Error(), "/broken.jsx")
}

func TestScanImportsOrderAndDedup(t *testing.T) {
	code := `
import React from "react";
import { Button } from "./Button.jsx";
import "./styles.css";
import { useState } from "react";
export { helper } from "@/utils/helper.js";
const later = 1;
`
	imports := ScanImports(code)
	assert.Equal(t, []string{"react", "./Button.jsx", "./styles.css", "@/utils/helper.js"}, imports)
}

func TestScanImportsMultiline(t *testing.T) {
	code := "import {\n  a,\n  b\n} from \"./many.js\";\n"
	assert.Equal(t, []string{"./many.js"}, ScanImports(code))
}

func TestRewriteImports(t *testing.T) {
	code := `import React from "react";
import { Button } from "./Button.jsx";
import "./styles.css";
`
	out := RewriteImports(code, map[string]string{
		"react":        "https://esm.sh/react@18.3.1",
		"./Button.jsx": "/preview/blob/abc.mjs",
		"./styles.css": "",
	})

	assert.Contains(t, out, `from "https://esm.sh/react@18.3.1"`)
	assert.Contains(t, out, `from "/preview/blob/abc.mjs"`)
	assert.NotContains(t, out, "styles.css")
	assert.False(t, strings.Contains(out, `"react"`))
}
