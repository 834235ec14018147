package pipeline

import (
	"sort"

	"go.uber.org/zap"

	"github.com/bawa-networks/provision-cli/internal/model"
)

// Group regroups each leaf bucket by sent date. Records without a sent date
// are excluded from the output — a deliberate, logged drop, not an error.
// The returned slice lists the dropped PONs.
func Group(set model.ClassifiedSet) (model.GroupedSet, []string) {
	grouped := model.NewGroupedSet()
	var dropped []string

	for _, bucket := range model.LeafBuckets() {
		for pon, rec := range set.Leaf(bucket) {
			if rec.SentDate == "" {
				dropped = append(dropped, pon)
				zap.L().Warn("group: record has no sent date, dropped from report",
					zap.String("pon", pon),
					zap.String("bucket", string(bucket)),
				)
				continue
			}

			dates := grouped[bucket]
			if dates[rec.SentDate] == nil {
				dates[rec.SentDate] = make(map[string]model.Record)
			}
			dates[rec.SentDate][pon] = rec
		}
	}

	sort.Strings(dropped)
	return grouped, dropped
}
