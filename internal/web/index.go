package web

// Single-page dashboard: one card per widget, fed by /widgets/stream.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Helios</title>
  <link href="https://fonts.googleapis.com/css2?family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root { --bg:#ffffff; --ink:#111111; --ink-soft:#9c9c9c; --panel:#f6f6f6; --up:#1a7f37; --down:#cf222e; }
    * { box-sizing:border-box; }
    body { margin:0; padding:2rem; background:var(--bg); color:var(--ink); font-family:'Space Mono',monospace; }
    h1 { font-size:1.2rem; letter-spacing:.1em; }
    #grid { display:grid; grid-template-columns:repeat(auto-fill,minmax(340px,1fr)); gap:1.25rem; }
    .card { background:var(--panel); border:3px solid var(--ink); padding:1rem; box-shadow:8px 8px 0 rgba(0,0,0,.12); }
    .card h2 { margin:0 0 .75rem; font-size:.9rem; text-transform:uppercase; }
    .cta { color:var(--ink-soft); }
    table { width:100%; border-collapse:collapse; font-size:.8rem; }
    td { padding:.2rem 0; cursor:pointer; }
    td.num { text-align:right; }
    .up { color:var(--up); } .down { color:var(--down); }
    .controls button { font-family:inherit; font-size:.7rem; margin-right:.25rem; }
    #detail { position:fixed; inset:10% 20%; background:var(--bg); border:3px solid var(--ink); padding:1.5rem; display:none; overflow:auto; }
  </style>
</head>
<body>
  <h1>HELIOS · LIVE PORTFOLIO</h1>
  <div id="grid"></div>
  <div id="detail"></div>
  <script>
    const periods = ['1M','3M','6M','1Y','YTD'];
    const withPeriod = ['performance','factor_attribution'];
    const grid = document.getElementById('grid');
    const detail = document.getElementById('detail');
    const cards = {};

    function card(kind) {
      if (!cards[kind]) {
        const el = document.createElement('div');
        el.className = 'card';
        grid.appendChild(el);
        cards[kind] = el;
      }
      return cards[kind];
    }

    function control(kind, name, value) {
      fetch('/api/widgets/' + kind + '/' + name + '?value=' + value, { method:'POST' });
    }

    function showDetail(kind, metric) {
      fetch('/api/detail?kind=' + kind + '&metric=' + encodeURIComponent(metric))
        .then(r => r.json())
        .then(d => {
          detail.innerHTML = '<h2>' + d.name + '</h2><p>' + d.description + '</p><p><i>' + d.calculation + '</i></p>' +
            '<p>' + d.interpretation + '</p><ul>' + d.actionableInsights.map(i => '<li>' + i + '</li>').join('') + '</ul>' +
            '<p>' + d.historicalData.map(p => p.label + ': ' + p.value.toFixed(2)).join(' · ') + '</p>';
          detail.style.display = 'block';
        });
    }
    detail.onclick = () => { detail.style.display = 'none'; };

    function render(s) {
      const el = card(s.kind);
      let html = '<h2>' + s.kind.replace('_', ' ') + '</h2>';
      if (s.call_to_action) {
        el.innerHTML = html + '<p class="cta">' + s.call_to_action + '</p>';
        return;
      }
      if (withPeriod.includes(s.kind)) {
        html += '<div class="controls">' + periods.map(p =>
          '<button onclick="control(\'' + s.kind + '\',\'period\',\'' + p + '\')"' + (p === s.period ? ' disabled' : '') + '>' + p + '</button>').join('') + '</div>';
      }
      if (s.kind === 'sector_exposure') {
        html += '<div class="controls">' + ['absolute','relative'].map(v =>
          '<button onclick="control(\'sector_exposure\',\'view\',\'' + v + '\')"' + (v === s.view ? ' disabled' : '') + '>' + v + '</button>').join('') + '</div>';
      }
      if (s.portfolio) {
        const p = s.portfolio;
        html += '<p>Equity ' + p.equity + ' ' + p.currency + '</p><p class="' + (p.day_change_pct >= 0 ? 'up' : 'down') + '">' +
          p.day_change + ' (' + p.day_change_pct.toFixed(2) + '%)</p><p>Available ' + p.available + '</p>';
      }
      if (s.metrics) {
        html += '<table>' + s.metrics.map(m =>
          '<tr onclick="showDetail(\'' + s.kind + '\',\'' + m.metric.replace(/'/g, "\\'") + '\')"><td>' + m.metric + '</td>' +
          '<td class="num ' + m.trend + '">' + m.current.toFixed(2) + (m.unit || '') + '</td>' +
          '<td class="num">' + m.benchmark.toFixed(2) + '</td><td class="num">p' + Math.round(m.percentile) + '</td></tr>').join('') + '</table>';
      }
      if (s.insights) {
        html += s.insights.map(i => '<p><b>' + i.title + '</b><br>' + i.message + '</p>').join('');
      }
      el.innerHTML = html;
    }

    const es = new EventSource('/widgets/stream');
    es.addEventListener('widget', e => render(JSON.parse(e.data)));
  </script>
</body>
</html>`
