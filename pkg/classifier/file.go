package classifier

import (
	"errors"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/user/vulnscan-adk/pkg/feed"
	"github.com/user/vulnscan-adk/pkg/rules"
)

// UpdateRuleFile classifies the feed at feedPath with t and merges the
// resulting rules into the file at rulesPath. Existing rules always win; a
// missing rule file starts empty. It returns how many rules were added and
// the new total.
func (t Table) UpdateRuleFile(feedPath, rulesPath string, logger hclog.Logger) (added, total int, err error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	records, err := feed.Open(feedPath)
	if err != nil {
		return 0, 0, err
	}
	existing, err := rules.Load(rulesPath, logger)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, 0, err
	}
	merged := rules.Merge(existing, t.Generate(records, logger))
	if err := rules.Save(merged, rulesPath); err != nil {
		return 0, 0, err
	}
	added = len(merged) - len(existing)
	logger.Info("rules merged", "path", rulesPath, "added", added, "total", len(merged))
	return added, len(merged), nil
}

// UpdateRuleFile uses DefaultTable.
func UpdateRuleFile(feedPath, rulesPath string, logger hclog.Logger) (int, int, error) {
	return DefaultTable.UpdateRuleFile(feedPath, rulesPath, logger)
}
