package pipeline

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/bawa-networks/provision-cli/internal/lookup"
	"github.com/bawa-networks/provision-cli/internal/model"
)

// Enrich attaches CVLAN and address data to every record. It operates on
// copies — the input collection is never mutated — and returns the enriched
// collection plus the PONs whose cross-reference lookups were ambiguous.
// Zero-row lookups are an expected outcome and never mark a PON suspicious.
func Enrich(records map[string]model.Record, xref *lookup.Xref, sites *lookup.SiteDirectory) (map[string]model.Record, []string) {
	out := make(map[string]model.Record, len(records))
	var suspicious []string

	// Stable iteration keeps the suspicious list deterministic.
	pons := make([]string, 0, len(records))
	for pon := range records {
		pons = append(pons, pon)
	}
	sort.Strings(pons)

	for _, pon := range pons {
		rec := records[pon].Clone()

		tag1 := resolveTag(xref, rec.TowerName, rec.EVC1, pon, &suspicious)
		tag2 := resolveTag(xref, rec.TowerName, rec.EVC2, pon, &suspicious)

		rec.CVLAN = combineTags(tag1, tag2)
		if rec.CVLAN == "" {
			zap.L().Info("enrich: no cvlan found for site", zap.String("pon", pon))
		}

		if addr, ok := sites.AddressFor(pon); ok {
			rec.Address = addr
		} else {
			zap.L().Info("enrich: no address data for site", zap.String("pon", pon))
		}

		out[pon] = rec
	}

	return out, suspicious
}

// resolveTag queries the cross-reference for one circuit slot. Ambiguous
// results withhold the tag and mark the PON suspicious.
func resolveTag(xref *lookup.Xref, tower, circuit, pon string, suspicious *[]string) string {
	res := xref.TagFor(tower, circuit)
	switch res.Outcome {
	case lookup.OutcomeFound:
		return res.Tag
	case lookup.OutcomeAmbiguous:
		*suspicious = append(*suspicious, pon)
		zap.L().Warn("enrich: ambiguous cross-reference match",
			zap.String("pon", pon),
			zap.String("tower", tower),
			zap.String("circuit", circuit),
		)
		return ""
	default:
		return ""
	}
}

// combineTags joins the two slot tags with "/", trimming the separator when
// either side is absent.
func combineTags(tag1, tag2 string) string {
	return strings.Trim(tag1+"/"+tag2, "/")
}
