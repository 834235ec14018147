package pipeline

import (
	"go.uber.org/zap"

	"github.com/bawa-networks/provision-cli/internal/model"
)

// Build aggregates the documents of a single PON into one record. Document
// order is significant: it drives both circuit slot assignment and the
// last-write-wins merge of contact and date fields. Build never fails; a
// document contributing nothing leaves the record unchanged.
func Build(ex *Extractor, pon string, docs []model.RawDocument) (model.Record, []model.Anomaly) {
	rec := model.NewRecord(pon)
	var anomalies []model.Anomaly

	for _, doc := range docs {
		fields := ex.Extract(doc.Text)

		if fields.SentDate != "" {
			rec.SentDate = fields.SentDate
		}
		if fields.ContactName != "" {
			rec.ContactName = fields.ContactName
		}
		if fields.ContactPhone != "" {
			rec.ContactPhone = fields.ContactPhone
		}
		if fields.ContactEmail != "" {
			rec.ContactEmail = fields.ContactEmail
		}

		if fields.Circuit == "" {
			continue
		}

		switch fields.Family {
		case model.FamilyEVC:
			// First token fills evc1, the second evc2; any further EVC
			// token for the same PON is discarded.
			switch {
			case rec.EVC1 == "":
				rec.EVC1 = fields.Circuit
			case rec.EVC2 == "":
				rec.EVC2 = fields.Circuit
			default:
				anomalies = append(anomalies, model.Anomaly{
					PON:      pon,
					Document: doc.Path,
					Detail:   "evc slots full, token discarded: " + fields.Circuit,
				})
				zap.L().Warn("build: evc slots full, discarding token",
					zap.String("pon", pon),
					zap.String("circuit", fields.Circuit),
				)
			}
		case model.FamilyUNI:
			rec.UNI = fields.Circuit
		default:
			anomalies = append(anomalies, model.Anomaly{
				PON:      pon,
				Document: doc.Path,
				Detail:   "circuit token matches no known family: " + fields.Circuit,
			})
			zap.L().Warn("build: circuit token matches no known family",
				zap.String("pon", pon),
				zap.String("circuit", fields.Circuit),
			)
		}
	}

	return rec, anomalies
}
