package parser

import (
	"regexp"

	"github.com/balkashynov/fencer/internal/models"
)

var appSeparatorRegex = regexp.MustCompile(`[,\s]+`)

// ParseApps splits "slack, discord steam" style input into normalized app
// names. Later inputs are merged into earlier ones.
func ParseApps(inputs ...string) []string {
	var apps []string
	for _, input := range inputs {
		apps = append(apps, appSeparatorRegex.Split(input, -1)...)
	}
	return models.NormalizeApps(apps)
}
