package brouter

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/lintang-b-s/brouter-client/pkg/engine"
	"github.com/lintang-b-s/brouter-client/pkg/geo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const trekkingGPX = `<?xml version="1.0" encoding="UTF-8"?>
<!-- track-length = 42690 filtered ascend = 12 plain-ascend = -3 cost=58312 energy=.7kwh time=2h 28m 16s -->
<gpx xmlns="http://www.topografix.com/GPX/1/1" creator="BRouter-1.7.3" version="1.1">
 <trk>
  <name>brouter_trekking_0</name>
  <trkseg>
   <trkpt lon="4.904100" lat="52.367600"><ele>1.5</ele></trkpt>
   <trkpt lon="4.950000" lat="52.300000"><ele>-0.25</ele></trkpt>
   <trkpt lon="5.121400" lat="52.090700"><ele>4.0</ele></trkpt>
  </trkseg>
 </trk>
</gpx>
`

const flatGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx xmlns="http://www.topografix.com/GPX/1/1" creator="BRouter-1.7.3" version="1.1">
 <trk>
  <name>flat</name>
  <trkseg>
   <trkpt lon="4.904100" lat="52.367600"></trkpt>
   <trkpt lon="5.121400" lat="52.090700"></trkpt>
  </trkseg>
 </trk>
</gpx>
`

const emptyGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx xmlns="http://www.topografix.com/GPX/1/1" creator="BRouter-1.7.3" version="1.1">
 <trk>
  <name>empty</name>
  <trkseg>
  </trkseg>
 </trk>
</gpx>
`

var (
	amsterdam = geo.NewCoordinate(52.3676, 4.9041)
	utrecht   = geo.NewCoordinate(52.0907, 5.1214)
)

// newStubEngine lays out an already extracted bundle whose launcher prints
// reply and records its arguments in args.txt.
func newStubEngine(t *testing.T, reply string) (*engine.Engine, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("engine stubs are shell scripts")
	}
	root := t.TempDir()
	dir := filepath.Join(root, engine.BundleDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reply.gpx"), []byte(reply), 0o644))
	script := "#!/bin/sh\nhere=$(dirname \"$0\")\necho \"$@\" > \"$here/args.txt\"\ncat \"$here/reply.gpx\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brouter.sh"), []byte(script), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, engine.ReadyMarker), []byte("digest=stub\n"), 0o644))

	e, err := engine.New(engine.Config{CacheDir: root, Executable: "brouter.sh"}, zap.NewNop())
	require.NoError(t, err)
	return e, filepath.Join(dir, "args.txt")
}
