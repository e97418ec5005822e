package web

import (
	"html/template"
	"time"

	"github.com/derickschaefer/eqviz/internal/util"
)

var pageFuncs = template.FuncMap{
	"metric": func(v *float64) string { return util.FormatMetric(v, util.MissingSummary) },
	"cell":   func(v *float64) string { return util.FormatMetric(v, util.MissingCell) },
	"when":   func(t time.Time) string { return util.FormatTimestamp(t) },
}

var pageTemplate = template.Must(template.New("page").Funcs(pageFuncs).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Chemical Equipment Parameter Visualizer</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f8fafc; color: #0f172a; }
header { display: flex; justify-content: space-between; gap: 2rem; padding: 1.5rem 2rem; background: #fff; border-bottom: 1px solid #e2e8f0; }
main { display: grid; gap: 1.5rem; padding: 2rem; }
.panel { background: #fff; border: 1px solid #e2e8f0; border-radius: 8px; padding: 1.25rem; }
.metrics-grid { display: grid; grid-template-columns: repeat(4, 1fr); gap: 1rem; }
.metric-card { display: flex; flex-direction: column; gap: .25rem; }
.error-text { color: #dc2626; }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: .4rem .6rem; border-bottom: 1px solid #e2e8f0; }
</style>
</head>
<body>
<header>
  <div>
    <h1>Chemical Equipment Parameter Visualizer</h1>
    <p>Upload CSV data, review automated analytics, and download PDF reports.</p>
  </div>
  <form class="auth-form" method="post" action="/credentials">
    <label>Username <input type="text" name="username" value="{{.Username}}" placeholder="Username"></label>
    <label>Password <input type="password" name="password" placeholder="Password"></label>
    <button type="submit">Sign in</button>
  </form>
</header>
<main>
  <section class="panel upload-panel">
    <h2>Upload a CSV</h2>
    <p>Columns expected: Equipment Name, Type, Flowrate, Pressure, Temperature.</p>
    <form method="post" action="/upload" enctype="multipart/form-data">
      <input type="file" name="file" accept=".csv">
      <button type="submit"{{if .Loading}} disabled{{end}}>{{if .Loading}}Uploading…{{else}}Upload &amp; Analyze{{end}}</button>
    </form>
    {{with .Error}}<p class="error-text">{{.}}</p>{{end}}
  </section>

  <section class="panel summary-panel">
    <h2>Latest Summary</h2>
    {{with .LatestSummary}}
    <div class="metrics-grid">
      <div class="metric-card"><span>Total Equipment</span><strong>{{.TotalRecords}}</strong></div>
      <div class="metric-card"><span>Avg Flowrate</span><strong>{{metric .AvgFlowrate}}</strong></div>
      <div class="metric-card"><span>Avg Pressure</span><strong>{{metric .AvgPressure}}</strong></div>
      <div class="metric-card"><span>Avg Temperature</span><strong>{{metric .AvgTemperature}}</strong></div>
    </div>
    {{if $.Chart.Labels}}
    <div class="chart-wrapper"><img src="/chart.png" alt="{{$.Chart.Label}}"></div>
    {{else}}
    <p>No equipment type data detected.</p>
    {{end}}
    {{else}}
    <p>No uploads yet. Use the form above to get started.</p>
    {{end}}
  </section>

  <section class="panel history-panel">
    <h2>Upload History (Last 5)</h2>
    <form method="post" action="/refresh"><button type="submit">Refresh History</button></form>
    {{if .History}}
    <table>
      <thead>
        <tr><th>Filename</th><th>Uploaded</th><th>Total</th><th>Flowrate</th><th>Pressure</th><th>Temperature</th><th>Report</th></tr>
      </thead>
      <tbody>
        {{range .History}}
        <tr>
          <td>{{.OriginalFilename}}</td>
          <td>{{when .UploadedAt}}</td>
          <td>{{.TotalRecords}}</td>
          <td>{{cell .AvgFlowrate}}</td>
          <td>{{cell .AvgPressure}}</td>
          <td>{{cell .AvgTemperature}}</td>
          <td>{{if .ReportURL}}<a href="{{.ReportURL}}" target="_blank" rel="noreferrer">PDF</a>{{else}}Pending{{end}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{else}}
    <p>Upload history will appear here.</p>
    {{end}}
  </section>
</main>
</body>
</html>
`
