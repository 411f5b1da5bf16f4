package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"treescope/pkg/diagram"
	"treescope/pkg/layout"
	"treescope/pkg/model"
)

// InteractiveOptions configures HTML viewer generation.
type InteractiveOptions struct {
	Root  *model.Entity
	Title string
	Path  string // Output path; .html extension is enforced

	// Layout and Duration override the viewer geometry and transition
	// timing; zero values fall back to the shared defaults, so the page
	// matches the static exports.
	Layout   layout.Config
	Duration time.Duration
}

// GenerateInteractiveHTML creates a self-contained HTML file with a
// collapsible tree viewer. The document is embedded, so the file works
// from disk; when served by the preview server the viewer prefers the
// live /data/tree.json endpoint instead.
func GenerateInteractiveHTML(opts InteractiveOptions) (string, error) {
	if opts.Root == nil {
		return "", fmt.Errorf("no document to export")
	}

	dataJSON, err := json.Marshal(opts.Root)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = opts.Root.Name
	}

	outputPath := opts.Path
	if outputPath == "" {
		outputPath = "tree.html"
	}
	if !strings.HasSuffix(strings.ToLower(outputPath), ".html") {
		outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".html"
	}

	cfg := opts.Layout
	if cfg == (layout.Config{}) {
		cfg = layout.DefaultConfig()
	}
	dur := opts.Duration
	if dur <= 0 {
		dur = diagram.DefaultDuration
	}
	html := ViewerHTML(title, string(dataJSON), cfg, dur)

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create dir: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		return "", err
	}
	return outputPath, nil
}

// viewerConfig is the geometry and timing block handed to the page script,
// derived from the same layout.Config the static exporters render with.
type viewerConfig struct {
	Duration     float64 `json:"duration"` // milliseconds
	LevelSpacing float64 `json:"levelSpacing"`
	Radius       float64 `json:"radius"`
	Margin       struct {
		Top    float64 `json:"top"`
		Right  float64 `json:"right"`
		Bottom float64 `json:"bottom"`
		Left   float64 `json:"left"`
	} `json:"margin"`
	MinWidth    float64 `json:"minWidth"`
	MinHeight   float64 `json:"minHeight"`
	LabelBudget float64 `json:"labelBudget"`
	FontSize    float64 `json:"fontSize"`
	LineHeight  float64 `json:"lineHeight"`
}

// ViewerHTML renders the viewer page around an embedded document. Pass
// "null" as dataJSON to force the viewer to fetch /data/tree.json.
func ViewerHTML(title, dataJSON string, cfg layout.Config, duration time.Duration) string {
	vc := viewerConfig{
		Duration:     float64(duration.Milliseconds()),
		LevelSpacing: cfg.LevelSpacing,
		Radius:       cfg.NodeRadius,
		MinWidth:     cfg.MinWidth,
		MinHeight:    cfg.MinHeight,
		LabelBudget:  cfg.LabelBudgetPx,
		FontSize:     cfg.FontSizePx,
		LineHeight:   cfg.LabelLineHeight,
	}
	vc.Margin.Top = cfg.Margin.Top
	vc.Margin.Right = cfg.Margin.Right
	vc.Margin.Bottom = cfg.Margin.Bottom
	vc.Margin.Left = cfg.Margin.Left
	cfgJSON, err := json.Marshal(vc)
	if err != nil {
		cfgJSON = []byte("null")
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	return fmt.Sprintf(viewerTemplate,
		escapeXML(title), escapeXML(title), timestamp, dataJSON, string(cfgJSON))
}

const viewerTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s | treescope</title>
<style>
  :root {
    --bg: #fafafa;
    --fg: #333;
    --muted: #888;
    --accent: steelblue;
    --collapsed: lightsteelblue;
    --link: #ccc;
    --dur: 750ms;
    --label-size: 12px;
  }
  * { box-sizing: border-box; margin: 0; padding: 0; }
  body {
    font-family: sans-serif;
    background: var(--bg);
    color: var(--fg);
    height: 100vh;
    display: flex;
    flex-direction: column;
  }
  header {
    padding: 0.6rem 1.25rem;
    border-bottom: 2px solid var(--accent);
    display: flex;
    justify-content: space-between;
    align-items: baseline;
  }
  header h1 { font-size: 1.1rem; }
  header .meta { color: var(--muted); font-size: 0.75rem; }
  #container {
    flex: 1;
    overflow: auto;
    scroll-behavior: smooth;
  }
  #status {
    padding: 2rem;
    color: var(--muted);
  }
  #status.error { color: #c0392b; }
  .node circle {
    cursor: pointer;
    stroke: var(--accent);
    stroke-width: 1.5px;
    transition: r var(--dur), fill var(--dur);
  }
  .node { transition: transform var(--dur), opacity var(--dur); }
  .node text {
    font-size: var(--label-size);
    transition: opacity var(--dur);
    pointer-events: none;
  }
  .link {
    fill: none;
    stroke: var(--link);
    stroke-width: 1.5px;
    transition: d var(--dur), opacity var(--dur);
  }
</style>
</head>
<body>
<header>
  <h1>%s</h1>
  <div class="meta">Generated %s | treescope</div>
</header>
<div id="container"><div id="status">Loading&hellip;</div></div>
<script>
const DATA = %s;
const CFG = %s;
const DURATION = CFG.duration;
const LEVEL_SPACING = CFG.levelSpacing;
const RADIUS = CFG.radius;
const MARGIN = CFG.margin;
const MIN_W = CFG.minWidth, MIN_H = CFG.minHeight;
const LABEL_BUDGET = CFG.labelBudget;
const LINE_HEIGHT = CFG.lineHeight * CFG.fontSize;
document.documentElement.style.setProperty('--dur', DURATION + 'ms');
document.documentElement.style.setProperty('--label-size', CFG.fontSize + 'px');

const SVGNS = 'http://www.w3.org/2000/svg';
const container = document.getElementById('container');

function show(msg, isError) {
  container.innerHTML = '<div id="status"' + (isError ? ' class="error"' : '') + '></div>';
  container.firstChild.textContent = msg;
}

// Arena of nodes addressed by index; identities are assigned once, in
// build order, and never change.
function buildTree(rootEntity) {
  const nodes = [];
  function add(entity, parent, depth) {
    const id = nodes.length;
    const node = {
      id: id, parent: parent, depth: depth, children: [],
      name: entity.name || '', description: entity.description || '',
      url: entity.url || '', collapsed: false,
      x: 0, y: 0, x0: 0, y0: 0
    };
    nodes.push(node);
    (entity.children || []).forEach(function(c) {
      node.children.push(add(c, id, depth + 1));
    });
    return id;
  }
  add(rootEntity, -1, 0);
  return nodes;
}

function collapseBelowRoot(nodes) {
  nodes.forEach(function(n) {
    if (n.id !== 0 && n.children.length > 0) n.collapsed = true;
  });
}

function visibleNodes(nodes) {
  const out = [];
  function walk(i) {
    out.push(i);
    if (nodes[i].collapsed) return;
    nodes[i].children.forEach(walk);
  }
  if (nodes.length > 0) walk(0);
  return out;
}

function clamp(v, lo, hi) { return v < lo ? lo : (v > hi ? hi : v); }

// Tidy layout: leaves spaced evenly on the breadth axis, parents centered
// over their visible children, depth axis fixed per level.
function computeLayout(nodes, w, h) {
  const visible = visibleNodes(nodes);
  const units = {};
  let nextLeaf = 0;
  function walk(i) {
    const kids = nodes[i].collapsed ? [] : nodes[i].children;
    if (kids.length === 0) { units[i] = nextLeaf++; return; }
    kids.forEach(walk);
    units[i] = (units[kids[0]] + units[kids[kids.length - 1]]) / 2;
  }
  if (visible.length === 0) return visible;
  walk(0);
  const maxUnit = nextLeaf - 1;
  visible.forEach(function(i) {
    const n = nodes[i];
    let y = h / 2;
    if (maxUnit > 0) y = RADIUS + units[i] / maxUnit * (h - 2 * RADIUS);
    n.x = clamp(n.depth * LEVEL_SPACING, RADIUS, w - RADIUS);
    n.y = clamp(y, RADIUS, h - RADIUS);
  });
  return visible;
}

function wrapLabel(text, budget) {
  const words = String(text).split(/\s+/).filter(Boolean);
  if (words.length === 0) return [];
  const lines = [];
  let current = words[0];
  for (let k = 1; k < words.length; k++) {
    const candidate = current + ' ' + words[k];
    if (candidate.length * 7.2 > budget) { lines.push(current); current = words[k]; }
    else current = candidate;
  }
  lines.push(current);
  return lines;
}

function diagonal(x1, y1, x2, y2) {
  const mx = (x1 + x2) / 2;
  return 'M' + x1 + ',' + y1 + ' C' + mx + ',' + y1 + ' ' + mx + ',' + y2 + ' ' + x2 + ',' + y2;
}

function start(rootEntity) {
  const nodes = buildTree(rootEntity);
  collapseBelowRoot(nodes);

  container.innerHTML = '';
  const svgEl = document.createElementNS(SVGNS, 'svg');
  container.appendChild(svgEl);
  const linkLayer = document.createElementNS(SVGNS, 'g');
  const nodeLayer = document.createElementNS(SVGNS, 'g');
  svgEl.appendChild(linkLayer);
  svgEl.appendChild(nodeLayer);

  const nodeEls = {}, linkEls = {};
  let areaW = 0, areaH = 0;

  function resize() {
    areaW = Math.max(container.clientWidth - MARGIN.left - MARGIN.right, MIN_W);
    areaH = Math.max(container.clientHeight - MARGIN.top - MARGIN.bottom, MIN_H);
    svgEl.setAttribute('width', areaW + MARGIN.left + MARGIN.right);
    svgEl.setAttribute('height', areaH + MARGIN.top + MARGIN.bottom);
    linkLayer.setAttribute('transform', 'translate(' + MARGIN.left + ',' + MARGIN.top + ')');
    nodeLayer.setAttribute('transform', 'translate(' + MARGIN.left + ',' + MARGIN.top + ')');
  }
  resize();
  nodes[0].x0 = 0;
  nodes[0].y0 = areaH / 2;

  function markerFill(n) {
    return n.collapsed && n.children.length > 0 ? 'var(--collapsed)' : '#fff';
  }

  function makeNodeEl(n) {
    const g = document.createElementNS(SVGNS, 'g');
    g.setAttribute('class', 'node');
    const circle = document.createElementNS(SVGNS, 'circle');
    const titleEl = document.createElementNS(SVGNS, 'title');
    titleEl.textContent = n.description || n.name;
    circle.appendChild(titleEl);
    g.appendChild(circle);
    const text = document.createElementNS(SVGNS, 'text');
    const leaf = n.children.length === 0;
    text.setAttribute('text-anchor', leaf ? 'start' : 'end');
    wrapLabel(n.name, LABEL_BUDGET).forEach(function(line, k) {
      const tspan = document.createElementNS(SVGNS, 'tspan');
      tspan.setAttribute('x', leaf ? RADIUS + 3 : -(RADIUS + 3));
      tspan.setAttribute('dy', k === 0 ? '0.35em' : LINE_HEIGHT);
      tspan.textContent = line;
      text.appendChild(tspan);
    });
    g.appendChild(text);
    g.addEventListener('click', function() { click(n.id); });
    return g;
  }

  function update(sourceId) {
    const source = nodes[sourceId];
    const srcPrev = {x: source.x0, y: source.y0};
    const visible = computeLayout(nodes, areaW, areaH);
    const srcNew = {x: source.x, y: source.y};
    const visibleSet = {};
    visible.forEach(function(i) { visibleSet[i] = true; });

    visible.forEach(function(i) {
      const n = nodes[i];
      let g = nodeEls[i];
      if (!g) {
        // Entering: appear at the source's previous position, grow out.
        g = makeNodeEl(n);
        nodeEls[i] = g;
        nodeLayer.appendChild(g);
        g.style.transition = 'none';
        g.setAttribute('transform', 'translate(' + srcPrev.x + ',' + srcPrev.y + ')');
        g.style.opacity = 0;
        g.querySelector('circle').setAttribute('r', 0);
        void g.getBoundingClientRect();
        g.style.transition = '';
      }
      requestAnimationFrame(function() {
        g.setAttribute('transform', 'translate(' + n.x + ',' + n.y + ')');
        g.style.opacity = 1;
        const circle = g.querySelector('circle');
        circle.setAttribute('r', RADIUS);
        circle.style.fill = markerFill(n);
      });
    });

    Object.keys(nodeEls).forEach(function(key) {
      const i = Number(key);
      if (visibleSet[i]) return;
      // Exiting: shrink toward the source's new position, then remove.
      const g = nodeEls[i];
      delete nodeEls[i];
      requestAnimationFrame(function() {
        g.setAttribute('transform', 'translate(' + srcNew.x + ',' + srcNew.y + ')');
        g.style.opacity = 0;
        g.querySelector('circle').setAttribute('r', 0);
      });
      setTimeout(function() { g.remove(); }, DURATION);
    });

    // Links, keyed by the child endpoint.
    visible.forEach(function(i) {
      if (i === 0) return;
      const n = nodes[i], p = nodes[n.parent];
      let path = linkEls[i];
      if (!path) {
        path = document.createElementNS(SVGNS, 'path');
        path.setAttribute('class', 'link');
        linkEls[i] = path;
        linkLayer.appendChild(path);
        path.style.transition = 'none';
        path.setAttribute('d', diagonal(srcPrev.x, srcPrev.y, srcPrev.x, srcPrev.y));
        path.style.opacity = 0;
        void path.getBoundingClientRect();
        path.style.transition = '';
      }
      requestAnimationFrame(function() {
        path.setAttribute('d', diagonal(p.x, p.y, n.x, n.y));
        path.style.opacity = 1;
      });
    });
    Object.keys(linkEls).forEach(function(key) {
      const i = Number(key);
      if (visibleSet[i]) return;
      const path = linkEls[i];
      delete linkEls[i];
      requestAnimationFrame(function() {
        path.setAttribute('d', diagonal(srcNew.x, srcNew.y, srcNew.x, srcNew.y));
        path.style.opacity = 0;
      });
      setTimeout(function() { path.remove(); }, DURATION);
    });

    nodes.forEach(function(n) { n.x0 = n.x; n.y0 = n.y; });
  }

  function scrollToNode(n) {
    const left = Math.max(n.x + MARGIN.left - container.clientWidth / 2, 0);
    const top = Math.max(n.y + MARGIN.top - container.clientHeight / 2, 0);
    container.scrollTo({left: left, top: top, behavior: 'smooth'});
  }

  function click(i) {
    const n = nodes[i];
    if (n.children.length > 0) n.collapsed = !n.collapsed;
    update(i);
    scrollToNode(n);
    if (n.url) window.open(n.url, '_blank');
  }

  window.addEventListener('resize', function() {
    resize();
    update(0);
  });

  update(0);
}

(function init() {
  const canFetch = location.protocol === 'http:' || location.protocol === 'https:';
  if (canFetch) {
    fetch('/data/tree.json')
      .then(function(r) { if (!r.ok) throw new Error(r.status + ' ' + r.statusText); return r.json(); })
      .then(start)
      .catch(function(err) {
        if (DATA) start(DATA);
        else show('Failed to load tree: ' + err.message, true);
      });
  } else if (DATA) {
    start(DATA);
  } else {
    show('No tree document embedded.', true);
  }
})();
</script>
</body>
</html>
`
