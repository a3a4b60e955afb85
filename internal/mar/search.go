package mar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Search discovers MAR chart PDFs on disk.
type Search struct {
	validator *Validator
}

// NewSearch creates a chart search bounded by the given file size.
func NewSearch(maxFileSize int64) *Search {
	return &Search{validator: NewValidator(maxFileSize)}
}

// SearchDirectory walks the directory tree and returns every chart
// PDF, optionally filtered by a fuzzy filename query. Unreadable or
// invalid files are skipped, never fatal.
func (s *Search) SearchDirectory(req SearchDirectoryRequest) (*SearchDirectoryResult, error) {
	if req.Directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if _, err := os.Stat(req.Directory); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", req.Directory)
	}

	absDirectory, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	files, err := s.walkCharts(absDirectory, 0, func(name string) bool {
		return query == "" || s.matchesQuery(name, query)
	})
	if err != nil {
		return nil, err
	}

	return &SearchDirectoryResult{
		Files:       files,
		TotalCount:  len(files),
		Directory:   absDirectory,
		SearchQuery: req.Query,
	}, nil
}

// FindCharts returns every chart PDF under directory.
func (s *Search) FindCharts(directory string) ([]FileInfo, error) {
	result, err := s.SearchDirectory(SearchDirectoryRequest{Directory: directory})
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

// FindChartsLimited returns at most limit chart PDFs under directory.
func (s *Search) FindChartsLimited(directory string, limit int) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	return s.walkCharts(absDirectory, limit, nil)
}

// CountCharts counts the valid chart PDFs under directory.
func (s *Search) CountCharts(directory string) (int, error) {
	files, err := s.FindCharts(directory)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

// walkCharts is the shared walk. A nil accept matches everything;
// limit 0 means unlimited.
func (s *Search) walkCharts(absDirectory string, limit int, accept func(name string) bool) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(absDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries, keep walking
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}

		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}

		if !isChartFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished mid-walk
		}
		if err := s.validator.CheckInfo(path, info); err != nil {
			return nil //nolint:nilerr // skip invalid files, keep walking
		}

		if accept != nil && !accept(d.Name()) {
			return nil
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         d.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	return files, nil
}

func isChartFile(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// matchesQuery performs fuzzy matching on a chart filename: substring
// first, then all query words must appear among the filename words.
func (s *Search) matchesQuery(filename, query string) bool {
	name := strings.ToLower(filename)
	if strings.Contains(name, query) {
		return true
	}

	nameWords := splitIntoWords(strings.TrimSuffix(name, ".pdf"))
	for _, queryWord := range splitIntoWords(query) {
		found := false
		for _, word := range nameWords {
			if strings.Contains(word, queryWord) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitIntoWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
