package render

import (
	"github.com/goccy/go-json"

	"github.com/projetoecoscan/ecoscan/internal/app"
)

type jsonRenderer struct{}

func (r *jsonRenderer) Render(v app.View) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
