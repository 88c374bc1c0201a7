package assemble

// The three chunks below and the payload are concatenated by Generate
// into the final page. Markup and style stay dumb; the script mirrors
// the aggregation pipeline so the page behaves like the builder-side
// views without a server round trip.

const styleChunk = `  * { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: 'Segoe UI', system-ui, sans-serif; background: #1a1a2e; color: #eee; }
  header { display: flex; align-items: baseline; justify-content: space-between; padding: 12px 20px; background: #16213e; }
  h1 { font-size: 1.1rem; color: #a9c4f5; }
  #stamp { font-size: 0.75rem; color: #778; }
  #tabs { display: flex; gap: 8px; padding: 10px 20px 0; background: #16213e; }
  .tab { padding: 6px 16px; border: 1px solid #2a3a5e; border-bottom: none; border-radius: 6px 6px 0 0;
         background: #1a1a2e; color: #aaa; cursor: pointer; font-size: 0.85rem; }
  .tab.active { background: #0f3460; color: #e8efff; }
  #controls { display: flex; flex-wrap: wrap; gap: 10px; align-items: center; padding: 12px 20px;
              background: #0f3460; font-size: 0.8rem; }
  #controls label { color: #a9c4f5; }
  #controls input, #controls select { background: #1a1a2e; color: #eee; border: 1px solid #2a3a5e;
                                      border-radius: 4px; padding: 4px 6px; font-size: 0.8rem; }
  #controls button { background: #16213e; color: #a9c4f5; border: 1px solid #2a3a5e; border-radius: 4px;
                     padding: 4px 10px; cursor: pointer; }
  #range-error { color: #ff7b7b; min-width: 160px; }
  #chips { display: flex; flex-wrap: wrap; gap: 6px; width: 100%; }
  .chip { padding: 3px 10px; border-radius: 12px; border: 1px solid #4a6fa5; background: #1a1a2e;
          color: #9ab; cursor: pointer; font-size: 0.75rem; }
  .chip.on { background: #4a6fa5; color: #fff; }
  #content { padding: 16px 20px; }
  #chart-wrap { height: 320px; margin-bottom: 16px; }
  table { width: 100%; border-collapse: collapse; font-size: 0.82rem; }
  th, td { padding: 6px 10px; text-align: left; border-bottom: 1px solid #2a3a5e; }
  th { color: #a9c4f5; font-weight: 600; background: #16213e; }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  tfoot td { color: #a9c4f5; font-weight: 600; border-top: 2px solid #4a6fa5; }
  .nodata { color: #778; font-style: italic; }
  #empty { padding: 40px; text-align: center; color: #778; }
  .hidden { display: none; }
  footer { padding: 10px 20px; font-size: 0.72rem; color: #556; }
`

const bodyChunk = `<header>
  <h1>Opsboard — Service Metrics</h1>
  <div id="stamp"></div>
</header>
<nav id="tabs">
  <button class="tab active" id="tab-operational">Operational</button>
  <button class="tab" id="tab-client">Clients</button>
</nav>
<section id="controls">
  <label>From <input type="date" id="period-start"></label>
  <label>To <input type="date" id="period-end"></label>
  <span id="range-error"></span>
  <select id="group-by">
    <option value="team">By team</option>
    <option value="employee">By employee</option>
  </select>
  <select id="granularity">
    <option value="day">Daily</option>
    <option value="month">Monthly</option>
  </select>
  <button id="reset">Reset</button>
  <div id="chips"></div>
</section>
<section id="content">
  <div id="empty" class="hidden">No records match the current filter.</div>
  <div id="chart-wrap"><canvas id="chart"></canvas></div>
  <table id="table"><thead></thead><tbody></tbody><tfoot></tfoot></table>
</section>
<footer id="foot"></footer>
`

const scriptChunk = `const ops = D.operational || [];
const cls = D.clients || [];
const cal = D.calendar || {};

// Identifier order is first appearance in the payload. Tables, chips
// and chart rows all follow it; nothing is alphabetized.
const teamOrder = [], teamIdx = Object.create(null);
const empIdx = Object.create(null);
let empSeen = 0;
for (const r of ops) {
  if (!(r.team in teamIdx)) { teamIdx[r.team] = teamOrder.length; teamOrder.push(r.team); }
  if (!(r.employee in empIdx)) { empIdx[r.employee] = empSeen++; }
}
const clientOrder = [], clientIdx = Object.create(null);
for (const r of cls) {
  if (!(r.client in clientIdx)) { clientIdx[r.client] = clientOrder.length; clientOrder.push(r.client); }
}

function monthLastDay(m) {
  const y = Number(m.slice(0, 4)), mm = Number(m.slice(5, 7));
  return m + '-' + String(new Date(Date.UTC(y, mm, 0)).getUTCDate()).padStart(2, '0');
}

let lo = null, hi = null;
for (const r of ops) {
  if (lo === null || r.date < lo) lo = r.date;
  if (hi === null || r.date > hi) hi = r.date;
}
for (const r of cls) {
  const f = r.month + '-01', l = monthLastDay(r.month);
  if (lo === null || f < lo) lo = f;
  if (hi === null || l > hi) hi = l;
}

const S = { mode: 'operational', start: lo, end: hi, teams: new Set(), clients: new Set(),
            group: 'team', gran: 'day' };

function aggOperational() {
  const buckets = new Map();
  for (const r of ops) {
    if (r.date < S.start || r.date > S.end) continue;
    if (S.teams.size && !S.teams.has(r.team)) continue;
    const date = S.gran === 'month' ? r.date.slice(0, 7) + '-01' : r.date;
    const emp = S.group === 'employee' ? r.employee : '';
    const key = date + '|' + r.team + '|' + emp;
    let b = buckets.get(key);
    if (!b) {
      b = { date: date, team: r.team, employee: emp, hours: 0, tickets: 0, visits: 0, heads: new Set() };
      buckets.set(key, b);
    }
    b.hours += r.hours; b.tickets += r.tickets; b.visits += r.visits;
    b.heads.add(r.employee);
  }
  const rows = Array.from(buckets.values());
  rows.sort(function (a, b) {
    if (a.date !== b.date) return a.date < b.date ? -1 : 1;
    if (a.team !== b.team) return teamIdx[a.team] - teamIdx[b.team];
    return (empIdx[a.employee] || 0) - (empIdx[b.employee] || 0);
  });
  return rows;
}

function aggClient() {
  const fromM = S.start.slice(0, 7), toM = S.end.slice(0, 7);
  const buckets = new Map();
  for (const r of cls) {
    if (r.month < fromM || r.month > toM) continue;
    if (S.clients.size && !S.clients.has(r.client)) continue;
    const key = r.month + '|' + r.client;
    let b = buckets.get(key);
    if (!b) {
      b = { month: r.month, client: r.client, hours: 0, opened: 0, closed: 0, met: 0, total: 0, incidents: 0 };
      buckets.set(key, b);
    }
    b.hours += r.hours_billed; b.opened += r.tickets_opened; b.closed += r.tickets_closed;
    // Sum numerator and denominator; the ratio is computed once per
    // bucket, never averaged across records.
    b.met += r.sla_met; b.total += r.sla_total;
    b.incidents += r.incidents || 0;
  }
  const rows = Array.from(buckets.values());
  rows.sort(function (a, b) {
    if (a.month !== b.month) return a.month < b.month ? -1 : 1;
    return clientIdx[a.client] - clientIdx[b.client];
  });
  return rows;
}

function sla(met, total) {
  if (total <= 0) return '<span class="nodata">no SLA data</span>';
  return (100 * met / total).toFixed(1) + '%';
}

function utilization(b) {
  if (S.gran !== 'month') return '';
  const days = cal[b.date.slice(0, 7)];
  if (!days) return '<td class="num nodata">—</td>';
  const norm = days * 8 * b.heads.size;
  if (norm <= 0) return '<td class="num nodata">—</td>';
  return '<td class="num">' + (100 * b.hours / norm).toFixed(1) + '%</td>';
}

let chart = null;
function drawChart(labels, rows, nameOf, valueOf) {
  const palette = ['#4a6fa5', '#a9c4f5', '#e2b04a', '#6fbf8f', '#c96f6f', '#9a6fc9', '#6fc9c0', '#c9a36f'];
  const byName = new Map();
  const labelPos = new Map();
  labels.forEach(function (l, i) { labelPos.set(l, i); });
  for (const b of rows) {
    const name = nameOf(b);
    if (!byName.has(name)) byName.set(name, new Array(labels.length).fill(0));
    byName.get(name)[labelPos.get(b.label)] += valueOf(b);
  }
  const datasets = [];
  let i = 0;
  byName.forEach(function (values, name) {
    datasets.push({ label: name, data: values, backgroundColor: palette[i++ % palette.length] });
  });
  if (chart) chart.destroy();
  chart = new Chart(document.getElementById('chart'), {
    type: 'bar',
    data: { labels: labels, datasets: datasets },
    options: {
      responsive: true, maintainAspectRatio: false,
      plugins: { legend: { labels: { color: '#ccd' } } },
      scales: { x: { ticks: { color: '#99a' }, grid: { color: '#2a3a5e' } },
                y: { ticks: { color: '#99a' }, grid: { color: '#2a3a5e' } } }
    }
  });
}

function renderChips() {
  const box = document.getElementById('chips');
  box.innerHTML = '';
  const names = S.mode === 'operational' ? teamOrder : clientOrder;
  const selected = S.mode === 'operational' ? S.teams : S.clients;
  for (const name of names) {
    const chip = document.createElement('button');
    chip.className = 'chip' + (selected.has(name) ? ' on' : '');
    chip.textContent = name;
    chip.onclick = function () {
      if (selected.has(name)) selected.delete(name); else selected.add(name);
      render();
    };
    box.appendChild(chip);
  }
}

function render() {
  document.getElementById('tab-operational').className = 'tab' + (S.mode === 'operational' ? ' active' : '');
  document.getElementById('tab-client').className = 'tab' + (S.mode === 'client' ? ' active' : '');
  document.getElementById('group-by').style.display = S.mode === 'operational' ? '' : 'none';
  document.getElementById('granularity').style.display = S.mode === 'operational' ? '' : 'none';
  renderChips();

  const thead = document.querySelector('#table thead');
  const tbody = document.querySelector('#table tbody');
  const tfoot = document.querySelector('#table tfoot');
  const rows = S.mode === 'operational' ? aggOperational() : aggClient();

  document.getElementById('empty').className = rows.length ? 'hidden' : '';
  document.getElementById('chart-wrap').className = rows.length ? '' : 'hidden';
  document.getElementById('table').className = rows.length ? '' : 'hidden';

  if (S.mode === 'operational') {
    const monthly = S.gran === 'month';
    const label = monthly ? 'Month' : 'Date';
    thead.innerHTML = '<tr><th>' + label + '</th><th>' +
      (S.group === 'employee' ? 'Employee</th><th>Team' : 'Team') +
      '</th><th>Hours</th><th>Tickets</th><th>Visits</th><th>Staff</th>' +
      (monthly ? '<th>Utilization</th>' : '') + '</tr>';
    let hours = 0, tickets = 0, visits = 0;
    tbody.innerHTML = rows.map(function (b) {
      hours += b.hours; tickets += b.tickets; visits += b.visits;
      return '<tr><td>' + (monthly ? b.date.slice(0, 7) : b.date) + '</td><td>' +
        (S.group === 'employee' ? b.employee + '</td><td>' + b.team : b.team) +
        '</td><td class="num">' + b.hours.toFixed(1) +
        '</td><td class="num">' + b.tickets +
        '</td><td class="num">' + b.visits +
        '</td><td class="num">' + b.heads.size + '</td>' +
        (monthly ? utilization(b) : '') + '</tr>';
    }).join('');
    tfoot.innerHTML = rows.length ? '<tr><td>Total</td><td></td>' +
      (S.group === 'employee' ? '<td></td>' : '') +
      '<td class="num">' + hours.toFixed(1) + '</td><td class="num">' + tickets +
      '</td><td class="num">' + visits + '</td><td></td>' + (monthly ? '<td></td>' : '') + '</tr>' : '';

    for (const b of rows) b.label = monthly ? b.date.slice(0, 7) : b.date;
    const labels = [];
    for (const b of rows) if (!labels.includes(b.label)) labels.push(b.label);
    drawChart(labels, rows,
      function (b) { return S.group === 'employee' ? b.employee + ' (' + b.team + ')' : b.team; },
      function (b) { return b.hours; });
  } else {
    thead.innerHTML = '<tr><th>Month</th><th>Client</th><th>Hours billed</th><th>Opened</th>' +
      '<th>Closed</th><th>Backlog</th><th>Incidents</th><th>SLA</th></tr>';
    let hours = 0, opened = 0, closed = 0, met = 0, total = 0, incidents = 0;
    tbody.innerHTML = rows.map(function (b) {
      hours += b.hours; opened += b.opened; closed += b.closed;
      met += b.met; total += b.total; incidents += b.incidents;
      return '<tr><td>' + b.month + '</td><td>' + b.client +
        '</td><td class="num">' + b.hours.toFixed(1) +
        '</td><td class="num">' + b.opened +
        '</td><td class="num">' + b.closed +
        '</td><td class="num">' + (b.opened - b.closed) +
        '</td><td class="num">' + b.incidents +
        '</td><td class="num">' + sla(b.met, b.total) + '</td></tr>';
    }).join('');
    tfoot.innerHTML = rows.length ? '<tr><td>Total</td><td></td><td class="num">' + hours.toFixed(1) +
      '</td><td class="num">' + opened + '</td><td class="num">' + closed +
      '</td><td class="num">' + (opened - closed) + '</td><td class="num">' + incidents +
      '</td><td class="num">' + sla(met, total) + '</td></tr>' : '';

    for (const b of rows) b.label = b.month;
    const labels = [];
    for (const b of rows) if (!labels.includes(b.label)) labels.push(b.label);
    drawChart(labels, rows,
      function (b) { return b.client; },
      function (b) { return b.hours; });
  }
}

function setPeriod(start, end) {
  const err = document.getElementById('range-error');
  if (start > end) {
    err.textContent = 'start is after end; keeping previous range';
    document.getElementById('period-start').value = S.start;
    document.getElementById('period-end').value = S.end;
    return;
  }
  err.textContent = '';
  S.start = start < lo ? lo : start;
  S.end = end > hi ? hi : end;
  document.getElementById('period-start').value = S.start;
  document.getElementById('period-end').value = S.end;
  render();
}

const startInput = document.getElementById('period-start');
const endInput = document.getElementById('period-end');
startInput.min = lo; startInput.max = hi; startInput.value = S.start;
endInput.min = lo; endInput.max = hi; endInput.value = S.end;
startInput.onchange = function () { setPeriod(startInput.value, endInput.value); };
endInput.onchange = function () { setPeriod(startInput.value, endInput.value); };

document.getElementById('tab-operational').onclick = function () { S.mode = 'operational'; render(); };
document.getElementById('tab-client').onclick = function () { S.mode = 'client'; render(); };
document.getElementById('group-by').onchange = function (e) { S.group = e.target.value; render(); };
document.getElementById('granularity').onchange = function (e) { S.gran = e.target.value; render(); };
document.getElementById('reset').onclick = function () {
  S.start = lo; S.end = hi; S.teams.clear(); S.clients.clear();
  S.group = 'team'; S.gran = 'day';
  document.getElementById('group-by').value = 'team';
  document.getElementById('granularity').value = 'day';
  startInput.value = lo; endInput.value = hi;
  document.getElementById('range-error').textContent = '';
  render();
};

document.getElementById('stamp').textContent =
  'build ' + (D.build_id || '?') + ' · ' + (D.generated_at || '');
document.getElementById('foot').textContent =
  ops.length + ' operational records, ' + cls.length + ' client records. Page reloads every 60s.';

if (lo === null) {
  document.getElementById('empty').className = '';
  document.getElementById('empty').textContent = 'The embedded payload holds no records.';
  document.getElementById('chart-wrap').className = 'hidden';
  document.getElementById('table').className = 'hidden';
} else {
  render();
}
`
