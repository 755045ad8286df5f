package engine

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/lintang-b-s/brouter-client/pkg/geo"
	"go.uber.org/zap"
)

const (
	segmentTileDegrees = 5
	segmentExt         = ".rd5"
)

var segmentNameRe = regexp.MustCompile(`^[EW][0-9]{1,3}_[NS][0-9]{1,2}$`)

// SegmentName is the routing data tile covering c, named after its south-west
// corner on the 5 degree grid, e.g. E5_N50 or W10_S35.
func SegmentName(c geo.Coordinate) string {
	lon := tileBase(math.Min(c.Lon, 180-segmentTileDegrees))
	lat := tileBase(math.Min(c.Lat, 90-segmentTileDegrees))
	return tileName(lon, lat)
}

func tileBase(v float64) int {
	return int(math.Floor(v/segmentTileDegrees)) * segmentTileDegrees
}

func tileName(lon, lat int) string {
	ew, ns := "E", "N"
	if lon < 0 {
		ew, lon = "W", -lon
	}
	if lat < 0 {
		ns, lat = "S", -lat
	}
	return fmt.Sprintf("%s%d_%s%d", ew, lon, ns, lat)
}

// RequiredSegments lists every tile of the bounding box around points, sorted.
func RequiredSegments(points []geo.Coordinate) []string {
	if len(points) == 0 {
		return nil
	}
	minLon, maxLon := points[0].Lon, points[0].Lon
	minLat, maxLat := points[0].Lat, points[0].Lat
	for _, p := range points[1:] {
		minLon, maxLon = math.Min(minLon, p.Lon), math.Max(maxLon, p.Lon)
		minLat, maxLat = math.Min(minLat, p.Lat), math.Max(maxLat, p.Lat)
	}

	loLon, loLat := tileBase(math.Min(minLon, 180-segmentTileDegrees)), tileBase(math.Min(minLat, 90-segmentTileDegrees))
	hiLon, hiLat := tileBase(math.Min(maxLon, 180-segmentTileDegrees)), tileBase(math.Min(maxLat, 90-segmentTileDegrees))

	var names []string
	for lon := loLon; lon <= hiLon; lon += segmentTileDegrees {
		for lat := loLat; lat <= hiLat; lat += segmentTileDegrees {
			names = append(names, tileName(lon, lat))
		}
	}
	sort.Strings(names)
	return names
}

func (e *Engine) SegmentsDir() string {
	return e.cfg.SegmentsDir
}

// MissingSegments returns the names that have no .rd5 file in the segments directory.
func (e *Engine) MissingSegments(names []string) []string {
	var missing []string
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(e.cfg.SegmentsDir, name+segmentExt)); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// DownloadSegment fetches {SegmentsURL}/{name}.rd5 into the segments
// directory. The file appears under its final name only once complete.
func (e *Engine) DownloadSegment(ctx context.Context, name string) error {
	if !segmentNameRe.MatchString(name) {
		return fmt.Errorf("invalid segment name %q", name)
	}
	if e.cfg.SegmentsURL == "" {
		return fmt.Errorf("segment %s missing and no segments url configured", name)
	}
	if err := os.MkdirAll(e.cfg.SegmentsDir, 0o755); err != nil {
		return err
	}

	url := e.cfg.SegmentsURL + "/" + name + segmentExt
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	e.log.Info("downloading routing segment", zap.String("url", url))
	resp, err := e.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("download segment %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download segment %s: unexpected status %s", name, resp.Status)
	}

	return atomicWrite(filepath.Join(e.cfg.SegmentsDir, name+segmentExt), resp.Body, 0o644)
}

// atomicWrite copies r to a temporary file next to path and renames it into place.
func atomicWrite(path string, r io.Reader, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
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
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
