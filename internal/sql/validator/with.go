package validator

import (
	"strings"

	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

// analyzeWith registers the views of a WITH clause in frame f. A view only
// becomes visible once its own body has been analyzed, so bodies may refer
// to earlier views but not to themselves or later ones.
func (a *statementAnalyzer) analyzeWith(f int, views []*parser.WithView) ([]BlockID, error) {
	if len(views) == 0 {
		return nil, nil
	}
	fr := a.frames[f]
	ids := make([]BlockID, 0, len(views))
	for _, view := range views {
		key := strings.ToLower(view.Alias)
		if _, dup := fr.views[key]; dup {
			return nil, errorf(DuplicateAlias, "Duplicate table alias: '%s'", key)
		}
		a.defining = append(a.defining, key)
		id, err := a.analyzeQuery(a.newFrame(f), view.Query)
		a.defining = a.defining[:len(a.defining)-1]
		if err != nil {
			return nil, err
		}
		block := a.block(id)
		if err := checkUniqueLabels(block.Labels, view.Alias); err != nil {
			return nil, err
		}
		fr.views[key] = &namedView{
			name:   view.Alias,
			block:  id,
			labels: block.Labels,
			types:  block.Types,
		}
		ids = append(ids, id)
	}
	return ids, nil
}
