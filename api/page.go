package api

import "net/http"

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(pageHTML))
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Instant QR</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
    background: #0a0a0a;
    color: #e0e0e0;
    display: flex;
    justify-content: center;
    padding: 48px 16px;
  }
  .card {
    background: #1a1a1a;
    border: 1px solid #333;
    border-radius: 16px;
    padding: 32px;
    max-width: 720px;
    width: 100%;
    margin-bottom: 24px;
  }
  h1 { font-size: 20px; font-weight: 600; margin-bottom: 8px; }
  h2 { font-size: 16px; font-weight: 600; margin-bottom: 12px; }
  .subtitle { color: #888; font-size: 14px; margin-bottom: 24px; }
  label { display: block; font-size: 13px; color: #aaa; margin-bottom: 12px; }
  input, select, textarea {
    display: block; width: 100%; margin-top: 4px; padding: 8px;
    background: #0f0f0f; color: #e0e0e0; border: 1px solid #333; border-radius: 8px;
  }
  input[type=checkbox] { display: inline; width: auto; margin-right: 6px; }
  .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 12px; }
  button {
    width: 100%; padding: 12px; border: 0; border-radius: 8px;
    background: #4ade80; color: #0a0a0a; font-weight: 600; cursor: pointer;
  }
  #preview { text-align: center; margin-top: 24px; }
  #preview img { background: #fff; border-radius: 12px; max-width: 280px; }
  #downloads a, #history a { color: #4ade80; margin: 0 6px; font-size: 14px; }
  #error { color: #f87171; font-size: 14px; margin-top: 12px; }
  #warnings { color: #fbbf24; font-size: 13px; margin-top: 8px; }
  #history li { list-style: none; padding: 8px 0; border-top: 1px solid #333; font-size: 14px; }
  .muted { color: #888; font-size: 12px; }
</style>
</head>
<body>
<main>
<div class="card">
  <h1>Instant QR</h1>
  <p class="subtitle">Type any text or URL, tune the options and download PNG, SVG or PDF.</p>
  <form id="generate">
    <label>Text or URL<textarea name="text" rows="3"></textarea></label>
    <div class="grid">
      <label>Error correction
        <select name="level"><option>L</option><option selected>M</option><option>Q</option><option>H</option></select>
      </label>
      <label>Version<input name="version" value="auto"></label>
      <label>Mask<input name="mask" value="auto"></label>
      <label>Scale<input name="scale" type="number" min="1" max="40" value="6"></label>
      <label>Quiet zone<input name="border" type="number" min="0" max="20" value="4"></label>
      <label>Logo size %<input name="logo_percent" type="number" min="10" max="30" value="20"></label>
      <label>Dark colour<input name="dark" type="color" value="#000000"></label>
      <label>Light colour<input name="light" type="color" value="#ffffff"></label>
      <label>Logo<input name="logo" type="file" accept="image/*"></label>
    </div>
    <label><input type="checkbox" name="micro">Micro QR</label>
    <label><input type="checkbox" name="boost_error" checked>Boost error correction</label>
    <label><input type="checkbox" name="transparent">Transparent PNG background</label>
    <button type="submit">Generate QR Code</button>
  </form>
  <div id="error"></div>
  <div id="preview"></div>
  <div id="warnings"></div>
  <div id="downloads"></div>
</div>
<div class="card">
  <h2>Batch generate</h2>
  <p class="subtitle">Upload a CSV with a "value" column or a TXT with one value per line. The options above apply to every code.</p>
  <form id="batch">
    <label>File<input name="file" type="file" accept=".csv,.txt"></label>
    <button type="submit">Generate ZIP</button>
  </form>
  <div id="batch-status" class="muted"></div>
</div>
<div class="card">
  <h2>History</h2>
  <ul id="history"></ul>
  <button id="clear" type="button">Clear history</button>
</div>
</main>
<script>
(function() {
  var form = document.getElementById('generate');
  var errorEl = document.getElementById('error');
  var previewEl = document.getElementById('preview');
  var warningsEl = document.getElementById('warnings');
  var downloadsEl = document.getElementById('downloads');
  var historyEl = document.getElementById('history');
  var batchStatus = document.getElementById('batch-status');

  function clearChildren(el) {
    while (el.firstChild) el.removeChild(el.firstChild);
  }

  function link(href, text) {
    var a = document.createElement('a');
    a.setAttribute('href', href);
    a.textContent = text;
    return a;
  }

  function optionsData() {
    var data = new FormData(form);
    ['micro', 'boost_error', 'transparent'].forEach(function(name) {
      data.set(name, form.elements[name].checked ? 'true' : 'false');
    });
    return data;
  }

  function loadHistory() {
    fetch('/history?limit=20')
      .then(function(r) { return r.json(); })
      .then(function(items) {
        clearChildren(historyEl);
        items.forEach(function(item) {
          var li = document.createElement('li');
          li.textContent = item.text + ' ';
          var ts = document.createElement('span');
          ts.className = 'muted';
          ts.textContent = item.timestamp;
          li.appendChild(ts);
          ['png', 'svg', 'pdf'].forEach(function(f) {
            li.appendChild(link('/history/' + item.id + '/' + f, f.toUpperCase()));
          });
          historyEl.appendChild(li);
        });
      });
  }

  form.addEventListener('submit', function(ev) {
    ev.preventDefault();
    errorEl.textContent = '';
    fetch('/generate', { method: 'POST', body: optionsData() })
      .then(function(r) { return r.json(); })
      .then(function(data) {
        if (data.error) {
          errorEl.textContent = data.error;
          return;
        }
        clearChildren(previewEl);
        var img = document.createElement('img');
        img.setAttribute('alt', 'QR Code');
        img.setAttribute('src', 'data:image/png;base64,' + data.png_base64);
        previewEl.appendChild(img);
        warningsEl.textContent = data.warnings.join(' ');
        clearChildren(downloadsEl);
        Object.keys(data.files).forEach(function(f) {
          downloadsEl.appendChild(link(data.files[f], 'Download ' + f.toUpperCase()));
        });
        loadHistory();
      })
      .catch(function() {
        errorEl.textContent = 'Request failed, please retry.';
      });
  });

  document.getElementById('batch').addEventListener('submit', function(ev) {
    ev.preventDefault();
    var data = optionsData();
    data.delete('text');
    data.set('file', ev.target.elements.file.files[0]);
    batchStatus.textContent = 'Generating...';
    fetch('/batch', { method: 'POST', body: data })
      .then(function(r) {
        if (!r.ok) {
          return r.json().then(function(body) {
            batchStatus.textContent = body.error || ('All ' + body.counts.failed + ' values failed.');
          });
        }
        return r.blob().then(function(blob) {
          var name = 'qr_batch.zip';
          var m = /filename="([^"]+)"/.exec(r.headers.get('Content-Disposition') || '');
          if (m) name = m[1];
          var a = link(URL.createObjectURL(blob), 'Download ' + name);
          a.setAttribute('download', name);
          clearChildren(batchStatus);
          batchStatus.appendChild(a);
        });
      });
  });

  document.getElementById('clear').addEventListener('click', function() {
    fetch('/history', { method: 'DELETE' }).then(loadHistory);
  });

  loadHistory();
})();
</script>
</body>
</html>`
