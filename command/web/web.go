package web

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Run starts a small Echo web server exposing the generated reports and
// cached Bugzilla data as JSON.
//
// Usage:
//
//	bugcycle web [-addr :8080] [-data ./data]
//
// Endpoints:
//
//	GET /api/reports/:version        -> <data>/bugs_count_<version>.csv as rows
//	GET /api/bzdata/:version         -> <data>/bugzilla_data_<version>.json verbatim
func Run(args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "http listen address (host:port)")
	dataDir := fs.String("data", "./data", "directory containing report files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e := echo.New()

	e.GET("/api/reports/:version", func(c echo.Context) error {
		version, err := strconv.Atoi(c.Param("version"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error":   "bad version",
				"message": "version must be an integer",
			})
		}
		path := filepath.Join(*dataDir, fmt.Sprintf("bugs_count_%d.csv", version))
		rows, err := readCSV(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return c.JSON(http.StatusNotFound, map[string]any{
					"error":   "file not found",
					"path":    path,
					"message": "report has not been generated for this version",
				})
			}
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"error":   err.Error(),
				"path":    path,
				"message": "failed to read report",
			})
		}
		return c.JSON(http.StatusOK, rows)
	})

	e.GET("/api/bzdata/:version", func(c echo.Context) error {
		version, err := strconv.Atoi(c.Param("version"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error":   "bad version",
				"message": "version must be an integer",
			})
		}
		path := filepath.Join(*dataDir, fmt.Sprintf("bugzilla_data_%d.json", version))
		if _, err := os.Stat(path); err != nil {
			return c.JSON(http.StatusNotFound, map[string]any{
				"error":   "file not found",
				"path":    path,
				"message": "no cached Bugzilla data for this version",
			})
		}
		return c.File(path)
	})

	return e.Start(*addr)
}

// readCSV loads a CSV file and returns its rows as string slices. The
// report file holds several sections with differing column counts, so rows
// are kept positional instead of header-keyed.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	// Read all rows; report files are small.
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = [][]string{}
	}
	return records, nil
}
