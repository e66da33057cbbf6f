package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/trailscan/brunnels/pkg/brunnel"
	"github.com/trailscan/brunnels/pkg/engine"
	"github.com/trailscan/brunnels/pkg/track"
)

// HTML writes a self-contained Leaflet map: the route in red, included
// bridges in solid blue, included tunnels in dashed brown, excluded
// candidates muted grey, with popups and a legend summarizing the decision
// counts.
func HTML(w io.Writer, trk *track.Track, result *engine.Result) error {
	fcJSON, err := GeoJSON(trk, result)
	if err != nil {
		return fmt.Errorf("building GeoJSON layer: %w", err)
	}

	var bridges, tunnels int
	for _, e := range result.Entities {
		if !e.Decision.Included {
			continue
		}
		if e.Type == brunnel.Bridge {
			bridges++
		} else {
			tunnels++
		}
	}
	excluded := len(result.Entities) - bridges - tunnels

	center := trk.Bounds(0).Center()
	data := htmlData{
		GeoJSON:         template.JS(fcJSON),
		CenterLat:       center.Latitude,
		CenterLon:       center.Longitude,
		RouteKm:         trk.Length() / 1000,
		IncludedBridges: bridges,
		IncludedTunnels: tunnels,
		Excluded:        excluded,
		NotRelevant:     result.Counts[brunnel.ReasonNotRelevant],
		NotContained:    result.Counts[brunnel.ReasonNotContained],
		Misaligned:      result.Counts[brunnel.ReasonMisaligned],
		Alternative:     result.Counts[brunnel.ReasonAlternative],
		MergeConflicts:  len(result.Conflicts),
	}
	return mapTemplate.Execute(w, data)
}

type htmlData struct {
	GeoJSON         template.JS
	CenterLat       float64
	CenterLon       float64
	RouteKm         float64
	IncludedBridges int
	IncludedTunnels int
	Excluded        int
	NotRelevant     int
	NotContained    int
	Misaligned      int
	Alternative     int
	MergeConflicts  int
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Brunnels</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body, #map { height: 100%; margin: 0; }
  .legend {
    background: rgba(255, 255, 255, 0.92);
    padding: 10px 14px;
    border-radius: 4px;
    box-shadow: 0 1px 4px rgba(0,0,0,0.3);
    font: 13px/1.5 sans-serif;
  }
  .legend .swatch {
    display: inline-block;
    width: 22px;
    height: 4px;
    margin-right: 6px;
    vertical-align: middle;
  }
</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], 13);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  maxZoom: 19,
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

var data = {{.GeoJSON}};

function styleFor(props) {
  if (props.kind === 'route') {
    return { color: '#d0211c', weight: 4, opacity: 0.9 };
  }
  if (!props.included) {
    return { color: '#9e9e9e', weight: 3, opacity: 0.55, dashArray: '2,6' };
  }
  if (props.kind === 'tunnel') {
    return { color: '#8b5a2b', weight: 5, opacity: 0.95, dashArray: '8,6' };
  }
  return { color: '#1c53d0', weight: 5, opacity: 0.95 };
}

function popupFor(props) {
  if (props.kind === 'route') {
    return 'Route: {{printf "%.2f" .RouteKm}} km';
  }
  var lines = ['<b>' + props.name + '</b> (' + props.kind + ' ' + props.id + ')'];
  if (props.included) {
    lines.push('span: ' + props.span_start_km.toFixed(2) + '&ndash;' +
      props.span_end_km.toFixed(2) + ' km');
  } else {
    lines.push('excluded: ' + props.reason + (props.detail ? ' (' + props.detail + ')' : ''));
  }
  if (props.members) {
    lines.push('merged from ' + props.members + ' ways');
  }
  if (props.tag_conflicts) {
    lines.push('tag conflicts: ' + Object.keys(props.tag_conflicts).join(', '));
  }
  return lines.join('<br>');
}

var layer = L.geoJSON(data, {
  style: function (f) { return styleFor(f.properties); },
  onEachFeature: function (f, l) { l.bindPopup(popupFor(f.properties)); }
}).addTo(map);
map.fitBounds(layer.getBounds(), { padding: [20, 20] });

var legend = L.control({ position: 'bottomright' });
legend.onAdd = function () {
  var div = L.DomUtil.create('div', 'legend');
  div.innerHTML =
    '<span class="swatch" style="background:#d0211c"></span>Route ({{printf "%.2f" .RouteKm}} km)<br>' +
    '<span class="swatch" style="background:#1c53d0"></span>Bridges ({{.IncludedBridges}})<br>' +
    '<span class="swatch" style="background:#8b5a2b"></span>Tunnels ({{.IncludedTunnels}})<br>' +
    '<span class="swatch" style="background:#9e9e9e"></span>Excluded ({{.Excluded}})' +
    '{{if .NotRelevant}}<br>&nbsp;&nbsp;not-relevant-tag: {{.NotRelevant}}{{end}}' +
    '{{if .NotContained}}<br>&nbsp;&nbsp;not-contained: {{.NotContained}}{{end}}' +
    '{{if .Misaligned}}<br>&nbsp;&nbsp;misaligned: {{.Misaligned}}{{end}}' +
    '{{if .Alternative}}<br>&nbsp;&nbsp;alternative: {{.Alternative}}{{end}}' +
    '{{if .MergeConflicts}}<br>&nbsp;&nbsp;merge conflicts: {{.MergeConflicts}}{{end}}';
  return div;
};
legend.addTo(map);
</script>
</body>
</html>
`))
