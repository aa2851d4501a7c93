// Package emit implements stage 6 of the pipeline: turning a solved
// circuit into a GPX track and a plain-text report, both written
// atomically.
package emit

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"

	"github.com/azybler/streetsweep/pkg/graph"
	"github.com/azybler/streetsweep/pkg/hierholzer"
)

type gpxDoc struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	Trk     gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Name string      `xml:"name"`
	Seg  gpxTrackSeg `xml:"trkseg"`
}

type gpxTrackSeg struct {
	Points []gpxPoint `xml:"trkpt"`
}

// gpxPoint carries lat/lon as pre-formatted strings: encoding/xml's
// default float formatting does not guarantee a minimum digit count, so
// the digits are built explicitly instead of trusting the struct
// encoder, the same way the teacher writes fixed-precision fields
// itself rather than relying on a generic encoder's defaults.
type gpxPoint struct {
	Lat string `xml:"lat,attr"`
	Lon string `xml:"lon,attr"`
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 7, 64)
}

// BuildGPX renders a solved circuit as a GPX 1.1 document. The first
// edge's source node is emitted, then every edge's target node, per
// spec §4.6.
func BuildGPX(g *graph.RoadGraph, circuit *hierholzer.Circuit, trackName string) []byte {
	var points []gpxPoint
	if len(circuit.NodeSeq) > 0 {
		for _, n := range circuit.NodeSeq {
			points = append(points, gpxPoint{
				Lat: formatCoord(g.NodeLat[n]),
				Lon: formatCoord(g.NodeLon[n]),
			})
		}
	}

	doc := gpxDoc{
		Version: "1.1",
		Creator: "streetsweep",
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Trk: gpxTrack{
			Name: trackName,
			Seg:  gpxTrackSeg{Points: points},
		},
	}

	out, _ := xml.MarshalIndent(doc, "", "  ")
	return append([]byte(xml.Header), out...)
}

// WriteAtomic writes data to path via a temp-file-then-rename, the same
// pattern as graph.WriteBinary: write to "<path>.tmp", fsync, close,
// then os.Rename into place so a crash mid-write never leaves a
// partially-written file at path.
func WriteAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath)
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, path, err)
	}
	return nil
}
