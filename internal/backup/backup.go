//go:build linux
// +build linux

package backup

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adrg/xdg"

	"firewallctl/internal/firewalld"
	"firewallctl/internal/validation"
)

const (
	timeFormat      = "20060102-150405"
	keepBackups     = 10
	maxDescription  = 40
	appDir          = "firewallctl"
	backupDirName   = "backups"
	preRestoreLabel = "pre-restore"
)

type Backup struct {
	Path        string
	Zone        string
	Time        time.Time
	Size        int64
	Description string
}

// ZoneHandle is the part of a persisted zone handle a snapshot needs.
// *firewalld.ConfigZone satisfies it.
type ZoneHandle interface {
	Name() string
	Settings() (*firewalld.ZoneSettings, error)
	Update(*firewalld.ZoneSettings) error
}

// Store keeps zone snapshots as firewalld zone XML, newest Keep per zone.
type Store struct {
	Dir  string
	Keep int

	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, Keep: keepBackups, now: time.Now}
}

// Dir returns the snapshot directory. Under sudo the invoking user's data
// directory is used so snapshots do not end up in root's home.
func Dir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		u, err := user.Lookup(sudoUser)
		if err == nil && u.HomeDir != "" {
			return filepath.Join(u.HomeDir, ".local", "share", appDir, backupDirName), nil
		}
	}
	if xdg.DataHome == "" {
		return "", fmt.Errorf("cannot resolve data directory")
	}
	return filepath.Join(xdg.DataHome, appDir, backupDirName), nil
}

func DefaultStore() (*Store, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir), nil
}

// Snapshot fetches the zone's permanent settings and writes them to a new
// snapshot file.
func (s *Store) Snapshot(zone ZoneHandle, description string) (Backup, error) {
	settings, err := zone.Settings()
	if err != nil {
		return Backup{}, err
	}
	return s.Save(zone.Name(), settings, description)
}

// Save writes settings as a snapshot of zone and prunes old snapshots.
func (s *Store) Save(zone string, settings *firewalld.ZoneSettings, description string) (Backup, error) {
	if err := validation.IsValidZoneName(zone); err != nil {
		return Backup{}, err
	}
	data, err := MarshalZoneXML(settings)
	if err != nil {
		return Backup{}, err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return Backup{}, err
	}

	ts := s.clock().Truncate(time.Second)
	suffix := ""
	desc := strings.TrimSpace(description)
	if desc != "" {
		desc = truncateDescription(desc, maxDescription)
		suffix = "__" + url.PathEscape(desc)
	}
	name := fmt.Sprintf("zone-%s-%s%s.xml", zone, ts.Format(timeFormat), suffix)
	dest := filepath.Join(s.Dir, name)
	if err := writeFileAtomic(dest, data); err != nil {
		return Backup{}, err
	}
	slog.Info("zone snapshot created", "zone", zone, "dest", dest)

	b := Backup{
		Path:        dest,
		Zone:        zone,
		Time:        ts,
		Size:        int64(len(data)),
		Description: desc,
	}
	if err := s.prune(zone); err != nil {
		slog.Warn("prune snapshots failed", "zone", zone, "error", err)
	}
	return b, nil
}

// List returns the snapshots of zone, newest first.
func (s *Store) List(zone string) ([]Backup, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	prefix := "zone-" + zone + "-"
	items := make([]Backup, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".xml") {
			continue
		}
		tsPart := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".xml")
		desc := ""
		if parts := strings.SplitN(tsPart, "__", 2); len(parts) == 2 {
			tsPart = parts[0]
			if decoded, err := url.PathUnescape(parts[1]); err == nil {
				desc = decoded
			} else {
				desc = parts[1]
			}
		}
		ts, err := time.ParseInLocation(timeFormat, tsPart, time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, Backup{
			Path:        filepath.Join(s.Dir, name),
			Zone:        zone,
			Time:        ts,
			Size:        info.Size(),
			Description: desc,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Time.After(items[j].Time)
	})
	return items, nil
}

// Load parses a snapshot file back into zone settings.
func (s *Store) Load(b Backup) (*firewalld.ZoneSettings, error) {
	if b.Path == "" {
		return nil, fmt.Errorf("backup path is empty")
	}
	return ParseZoneXMLFile(b.Path)
}

// Restore writes the snapshot's settings to zone through a single Update.
// The current settings are saved as a pre-restore snapshot first, so a
// failed or unwanted restore can be undone.
func (s *Store) Restore(zone ZoneHandle, b Backup) (Backup, error) {
	settings, err := s.Load(b)
	if err != nil {
		return Backup{}, err
	}
	pre, err := s.Snapshot(zone, preRestoreLabel)
	if err != nil {
		return Backup{}, fmt.Errorf("save pre-restore snapshot: %w", err)
	}
	if err := zone.Update(settings); err != nil {
		return pre, err
	}
	slog.Info("zone snapshot restored", "zone", zone.Name(), "src", b.Path)
	return pre, nil
}

func (s *Store) prune(zone string) error {
	if s.Keep <= 0 {
		return nil
	}
	items, err := s.List(zone)
	if err != nil {
		return err
	}
	if len(items) <= s.Keep {
		return nil
	}
	for _, b := range items[s.Keep:] {
		if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func writeFileAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func truncateDescription(desc string, max int) string {
	if max <= 0 || desc == "" {
		return ""
	}
	if utf8.RuneCountInString(desc) <= max {
		return desc
	}
	runes := []rune(desc)
	return string(runes[:max])
}
