package pipeline

import (
	"go.uber.org/zap"

	"github.com/bawa-networks/provision-cli/internal/lookup"
	"github.com/bawa-networks/provision-cli/internal/model"
)

// Classify partitions the enriched records into disconnect categories.
// The assignment is a pure function of the tower's cross-reference row count
// and which circuit slots are filled:
//
//	count > 2, uni+evc1+evc2        → pdisc/unievc
//	count > 2, evc1+evc2, no uni    → pdisc/vlan
//	count ≤ 2, uni+evc1+evc2        → fdisc
//	anything else                   → no_type
//
// A record missing one of the required companions gets no partial credit.
// Every record lands in exactly one leaf bucket.
func Classify(records map[string]model.Record, xref *lookup.Xref) model.ClassifiedSet {
	set := model.NewClassifiedSet()

	for pon, rec := range records {
		bucket := classifyOne(rec, xref.TowerMatchCount(rec.TowerName))
		set.Leaf(bucket)[pon] = rec

		zap.L().Debug("classify: record bucketed",
			zap.String("pon", pon),
			zap.String("bucket", string(bucket)),
		)
	}

	return set
}

func classifyOne(rec model.Record, towerMatchCount int) model.Bucket {
	hasUNI := rec.UNI != ""
	hasEVC1 := rec.EVC1 != ""
	hasEVC2 := rec.EVC2 != ""

	if towerMatchCount > 2 {
		switch {
		case hasUNI && hasEVC1 && hasEVC2:
			return model.BucketUniEvc
		case hasEVC1 && hasEVC2:
			return model.BucketVlan
		default:
			return model.BucketNoType
		}
	}

	if hasUNI && hasEVC1 && hasEVC2 {
		return model.BucketFdisc
	}
	return model.BucketNoType
}
