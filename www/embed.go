package www

import "embed"

//go:embed templates/*.html templates/partials/*.html templates/admin/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS
