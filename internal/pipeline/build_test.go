package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bawa-networks/provision-cli/internal/model"
)

func evcDoc(path, token string) model.RawDocument {
	return model.RawDocument{Path: path, Text: "EVC CKT\n  " + token + "\n"}
}

func uniDoc(path, token string) model.RawDocument {
	return model.RawDocument{Path: path, Text: "UNI CKT\n  " + token + "\n"}
}

func TestBuild_EVCSlotOrder(t *testing.T) {
	ex := newTestExtractor(t)

	docs := []model.RawDocument{
		evcDoc("a.pdf", "45.EVCTAG.AAA."),
		evcDoc("b.pdf", "45.EVCTAG.BBB."),
	}
	rec, anomalies := Build(ex, "PON123", docs)

	assert.Equal(t, "PON123", rec.PON)
	assert.Equal(t, "PON123", rec.TowerName)
	assert.Equal(t, "45.EVCTAG.AAA.", rec.EVC1)
	assert.Equal(t, "45.EVCTAG.BBB.", rec.EVC2)
	assert.Empty(t, anomalies)
}

func TestBuild_ThirdEVCTokenDiscarded(t *testing.T) {
	ex := newTestExtractor(t)

	docs := []model.RawDocument{
		evcDoc("a.pdf", "45.EVCTAG.AAA."),
		evcDoc("b.pdf", "45.EVCTAG.BBB."),
		evcDoc("c.pdf", "45.EVCTAG.CCC."),
	}
	rec, anomalies := Build(ex, "PON123", docs)

	assert.Equal(t, "45.EVCTAG.AAA.", rec.EVC1)
	assert.Equal(t, "45.EVCTAG.BBB.", rec.EVC2)
	assert.Len(t, anomalies, 1)
	assert.Contains(t, anomalies[0].Detail, "45.EVCTAG.CCC.")
}

func TestBuild_UNIOverwrites(t *testing.T) {
	ex := newTestExtractor(t)

	docs := []model.RawDocument{
		uniDoc("a.pdf", "45.UNITAG.AAA."),
		uniDoc("b.pdf", "45.UNITAG.BBB."),
	}
	rec, anomalies := Build(ex, "PON123", docs)

	assert.Equal(t, "45.UNITAG.BBB.", rec.UNI)
	assert.Empty(t, anomalies)
}

func TestBuild_UnknownFamilyToken(t *testing.T) {
	ex := newTestExtractor(t)

	docs := []model.RawDocument{
		{Path: "a.pdf", Text: "EVC CKT\n  45.BOGUS.AAA.\n"},
	}
	rec, anomalies := Build(ex, "PON123", docs)

	assert.Empty(t, rec.EVC1)
	assert.Empty(t, rec.UNI)
	assert.Len(t, anomalies, 1)
	assert.Contains(t, anomalies[0].Detail, "no known family")
}

func TestBuild_LastWriteWinsContactAndDate(t *testing.T) {
	ex := newTestExtractor(t)

	docs := []model.RawDocument{
		{Path: "a.pdf", Text: "FDT\n01-01-2024\nINIT TEL NO  FIRST PERSON  555-111-1111\n"},
		{Path: "b.pdf", Text: "FDT\n02-02-2024\n"},
	}
	rec, anomalies := Build(ex, "PON123", docs)

	assert.Equal(t, "02-02-2024", rec.SentDate)
	// The second document carries no contact, so the first one's sticks.
	assert.Equal(t, "FIRST PERSON", rec.ContactName)
	assert.Empty(t, anomalies)
}

func TestBuild_NoDocuments(t *testing.T) {
	ex := newTestExtractor(t)

	rec, anomalies := Build(ex, "PON123", nil)

	assert.Equal(t, "PON123", rec.PON)
	assert.Empty(t, rec.EVC1)
	assert.Empty(t, rec.SentDate)
	assert.Empty(t, anomalies)
}

func TestBuild_EmptyDocumentLeavesRecordUnchanged(t *testing.T) {
	ex := newTestExtractor(t)

	docs := []model.RawDocument{
		evcDoc("a.pdf", "45.EVCTAG.AAA."),
		{Path: "b.pdf", Text: "nothing useful"},
	}
	rec, anomalies := Build(ex, "PON123", docs)

	assert.Equal(t, "45.EVCTAG.AAA.", rec.EVC1)
	assert.Empty(t, rec.EVC2)
	assert.Empty(t, anomalies)
}
