// Package skillscan statically scans installable skill bundles (file
// trees of agent-extending code) for dangerous patterns before they are
// trusted. It reuses the same rule tables as the event pipeline.
package skillscan

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/andywolf/toolfence/internal/findings"
)

// maxFileSize is the ceiling above which files are skipped uninspected.
const maxFileSize = 200000

// FileFindings pairs one file with the risk tags found in its content.
type FileFindings struct {
	File     string   `json:"file"`
	Findings []string `json:"findings"`
}

// ScanResult is the report for one skill directory. Only files that
// produced at least one finding are listed.
type ScanResult struct {
	// Name is the manifest name when the skill carries a skill.yaml,
	// otherwise the directory basename.
	Name string `json:"name"`

	// Dir is the scanned directory.
	Dir string `json:"dir"`

	// Files lists flagged files in walk order.
	Files []FileFindings `json:"files"`
}

// Scanner walks skill root directories and retains the latest full-scan
// snapshot. Scans are synchronous; two overlapping full scans run
// independently and the snapshot reflects whichever finished last.
type Scanner struct {
	roots []string

	mu   sync.Mutex
	last map[string]ScanResult
}

// New creates a Scanner over the given root directories. Roots that do
// not exist are tolerated and yield no skills.
func New(roots []string) *Scanner {
	return &Scanner{roots: roots}
}

// ScanDirectory scans a single skill directory. A missing directory
// yields an empty result with no error.
func (s *Scanner) ScanDirectory(dir string) (ScanResult, error) {
	result := ScanResult{Name: skillName(dir), Dir: dir}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return result, nil
	}

	err := filepath.Walk(dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible files
		}
		if fi.IsDir() || fi.Size() > maxFileSize {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		tags := findings.Extract(string(data))
		if len(tags) == 0 {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		result.Files = append(result.Files, FileFindings{File: rel, Findings: tags})
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// ScanAll lists the immediate subdirectories of every configured root,
// scans each as one named skill, and retains the result map as the
// last-scan snapshot.
func (s *Scanner) ScanAll() (map[string]ScanResult, error) {
	results := make(map[string]ScanResult)

	for _, root := range s.roots {
		dirs, err := os.ReadDir(root)
		if err != nil {
			continue // missing roots yield no skills
		}
		for _, d := range dirs {
			if !d.IsDir() {
				continue
			}
			skillDir := filepath.Join(root, d.Name())
			result, err := s.ScanDirectory(skillDir)
			if err != nil {
				continue
			}
			results[result.Name] = result
		}
	}

	s.mu.Lock()
	s.last = results
	s.mu.Unlock()
	return results, nil
}

// ScanOne locates a skill by name among the configured roots and scans
// just that directory. The boolean reports whether the skill was found.
func (s *Scanner) ScanOne(name string) (ScanResult, bool) {
	for _, root := range s.roots {
		dirs, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, d := range dirs {
			if !d.IsDir() {
				continue
			}
			skillDir := filepath.Join(root, d.Name())
			if d.Name() != name && skillName(skillDir) != name {
				continue
			}
			result, err := s.ScanDirectory(skillDir)
			if err != nil {
				continue
			}
			return result, true
		}
	}
	return ScanResult{}, false
}

// LastScan returns the snapshot retained by the most recent ScanAll,
// or nil if no full scan has run yet.
func (s *Scanner) LastScan() map[string]ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	out := make(map[string]ScanResult, len(s.last))
	for k, v := range s.last {
		out[k] = v
	}
	return out
}

// SkillNames returns the sorted names from the last-scan snapshot.
func (s *Scanner) SkillNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.last))
	for name := range s.last {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
