// Package mailroom handles message intake: it pulls PDF attachments out of
// provisioning messages dropped in the inbox and stages them in one
// directory per PON for the extraction pipeline.
package mailroom

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bawa-networks/provision-cli/internal/config"
	"github.com/bawa-networks/provision-cli/internal/fetcher"
	"github.com/bawa-networks/provision-cli/internal/model"
)

// StagedOrder is the staged document set for one PON.
type StagedOrder struct {
	PON   string
	Dir   string
	Files []string
}

// Mailroom stages message attachments from the inbox.
type Mailroom struct {
	inbox   string
	staging string
	ponRe   *regexp.Regexp
}

// New creates a Mailroom. The PON pattern must contain one capture group for
// the PON token.
func New(cfg config.MailroomConfig, dirs config.DirectoriesConfig) (*Mailroom, error) {
	re, err := regexp.Compile(cfg.PONPattern)
	if err != nil {
		return nil, eris.Wrapf(err, "mailroom: compile pon pattern %q", cfg.PONPattern)
	}
	if re.NumSubexp() < 1 {
		return nil, eris.Errorf("mailroom: pon pattern %q has no capture group", cfg.PONPattern)
	}
	return &Mailroom{inbox: dirs.Inbox, staging: dirs.Staging, ponRe: re}, nil
}

// PONFromName extracts the PON token from a message filename. Filenames that
// do not match are skipped entirely; that is expected, not an error.
func (m *Mailroom) PONFromName(name string) (string, bool) {
	match := m.ponRe.FindStringSubmatch(name)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ProcessInbox unpacks every message in the inbox into the staging tree and
// returns the staged orders plus any per-message anomalies. Messages whose
// names carry no PON token are skipped. A message that cannot be unpacked is
// an anomaly for that message only; the batch continues.
func (m *Mailroom) ProcessInbox() ([]StagedOrder, []model.Anomaly, error) {
	entries, err := os.ReadDir(m.inbox)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Warn("mailroom: inbox does not exist", zap.String("dir", m.inbox))
			return nil, nil, nil
		}
		return nil, nil, eris.Wrapf(err, "mailroom: read inbox %s", m.inbox)
	}
	if len(entries) == 0 {
		zap.L().Info("mailroom: inbox is empty", zap.String("dir", m.inbox))
		return nil, nil, nil
	}

	var anomalies []model.Anomaly
	staged := make(map[string]*StagedOrder)

	for _, entry := range entries {
		name := entry.Name()
		pon, ok := m.PONFromName(name)
		if !ok {
			zap.L().Info("mailroom: no pon token in message name, skipping",
				zap.String("message", name),
			)
			continue
		}

		ponDir := filepath.Join(m.staging, pon)
		if err := os.MkdirAll(ponDir, 0o755); err != nil {
			return nil, anomalies, eris.Wrapf(err, "mailroom: create staging dir %s", ponDir)
		}

		msgPath := filepath.Join(m.inbox, name)
		files, unpackErr := m.unpackMessage(msgPath, entry.IsDir(), ponDir)
		if unpackErr != nil {
			anomalies = append(anomalies, model.Anomaly{
				PON:      pon,
				Document: name,
				Detail:   unpackErr.Error(),
			})
			zap.L().Warn("mailroom: failed to unpack message",
				zap.String("message", name),
				zap.Error(unpackErr),
			)
			continue
		}

		order, ok := staged[pon]
		if !ok {
			order = &StagedOrder{PON: pon, Dir: ponDir}
			staged[pon] = order
		}
		order.Files = append(order.Files, files...)

		zap.L().Info("mailroom: message staged",
			zap.String("pon", pon),
			zap.String("message", name),
			zap.Int("pdfs", len(files)),
		)
	}

	orders := make([]StagedOrder, 0, len(staged))
	for _, order := range staged {
		sort.Strings(order.Files)
		orders = append(orders, *order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].PON < orders[j].PON })

	return orders, anomalies, nil
}

// unpackMessage writes the PDF payloads of a single message into ponDir.
// Supported message shapes: .eml files, .zip archives, and plain directories
// of already-extracted PDFs.
func (m *Mailroom) unpackMessage(msgPath string, isDir bool, ponDir string) ([]string, error) {
	switch {
	case isDir:
		return m.stagePDFDir(msgPath, ponDir)
	case strings.EqualFold(filepath.Ext(msgPath), ".eml"):
		return extractEMLAttachments(msgPath, ponDir)
	case strings.EqualFold(filepath.Ext(msgPath), ".zip"):
		return fetcher.ExtractZIP(msgPath, ponDir, isPDFName)
	default:
		return nil, eris.Errorf("mailroom: unsupported message format %q", filepath.Base(msgPath))
	}
}

// stagePDFDir copies the PDFs of a message directory into ponDir.
func (m *Mailroom) stagePDFDir(srcDir, ponDir string) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, eris.Wrapf(err, "mailroom: read message dir %s", srcDir)
	}

	var staged []string
	for _, entry := range entries {
		if entry.IsDir() || !isPDFName(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(srcDir, entry.Name()))
		if err != nil {
			return staged, eris.Wrapf(err, "mailroom: read %s", entry.Name())
		}
		path, err := writeUnique(ponDir, entry.Name(), data)
		if err != nil {
			return staged, err
		}
		staged = append(staged, path)
	}
	return staged, nil
}

func isPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// writeUnique writes data under dir using name, appending -N before the
// extension until the name is free. Two messages for the same PON may carry
// attachments with identical names.
func writeUnique(dir, name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	path := filepath.Join(dir, name)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, counter, ext))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "mailroom: write attachment %s", path)
	}
	return path, nil
}

// Clear deletes all files and subdirectories in the given directory. The
// directory itself is kept (and created if missing).
func Clear(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "mailroom: create dir %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrapf(err, "mailroom: read dir %s", dir)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return eris.Wrapf(err, "mailroom: remove %s", path)
		}
	}

	zap.L().Info("mailroom: directory cleared", zap.String("dir", dir))
	return nil
}
