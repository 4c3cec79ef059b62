package render

import (
	"fmt"

	"github.com/projetoecoscan/ecoscan/internal/app"
	"github.com/projetoecoscan/ecoscan/internal/locale"
)

// Renderer formats a controller View into bytes for output.
type Renderer interface {
	Render(v app.View) ([]byte, error)
}

// NewRenderer returns a Renderer for the given format string.
// Supported formats: "text" (default), "json".
func NewRenderer(format string, loc *locale.Localizer) (Renderer, error) {
	switch format {
	case "", "text":
		return newTextRenderer(loc), nil
	case "json":
		return &jsonRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: supported formats are text, json", format)
	}
}
