// Package web holds the calculator page: its templates and the stylesheet
// and script served under /static.
package web

import "embed"

//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
