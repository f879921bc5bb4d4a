package server

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<title>feedrank</title>
<style>
body { font-family: Arial, sans-serif; padding: 20px; }
table { border-collapse: collapse; margin-bottom: 16px; }
th, td { border: 1px solid #ccc; padding: 4px 8px; }
th { background: #f0f0f0; }
tr.hit { background: #e6f7e6; }
td.hot { font-weight: bold; background: #fdf6d8; }
.tag { display: inline-block; padding: 1px 6px; border-radius: 4px; background: #e0e8f0; margin: 1px; }
input, textarea { margin: 2px; }
img.thumb { max-width: 100px; vertical-align: middle; }
</style>
</head>
<body>
<h1>feedrank</h1>
<form method="GET">
  <h3>RSS Feeds</h3>
  {{range .Feeds}}<input type="text" name="feed" value="{{.}}" size="80"><br>{{end}}
  <button type="submit">Load</button>
  {{range .Categories}}
  <section>
    <h3>Category {{.Index}}</h3>
    <input type="text" name="category{{.Index}}" value="{{.Name}}" size="60"><br>
    {{$idx := .Index}}
    {{range .Subcategories}}
    <div>
      <input type="text" name="subcategory{{$idx}}Title" value="{{.Title}}" placeholder="Title">
      <textarea name="subcategory{{$idx}}Desc" placeholder="Description">{{.Description}}</textarea>
      <input type="text" name="subcategory{{$idx}}Keywords" value="{{join .Keywords ", "}}" placeholder="Keywords">
    </div>
    {{end}}
    <label>Category keywords:</label>
    <input type="text" name="catKeywords{{.Index}}" value="{{join .Keywords ", "}}" size="60">
  </section>
  {{end}}
</form>
{{range .Categories}}
<details open>
  <summary><strong>Category {{.Index}}: {{.Name}}</strong></summary>
  <p>All keywords: {{range .AllKeywords}}<span class="tag">{{.}}</span>{{end}}</p>
  <table>
    <tr>
      <th>Article</th>
      <th>Similarity</th>
      <th>Keywords</th>
      {{range .Subcategories}}<th>{{.Title}}</th>{{end}}
    </tr>
    {{range .Rows}}
    <tr{{if ge .Composite 0.8}} class="hit"{{end}}>
      <td>{{if .Article.Image}}<img class="thumb" src="{{.Article.Image}}">{{end}} <a href="{{.Article.Link}}" target="_blank">{{.Article.Title}}</a></td>
      <td{{if ge .Similarity 0.8}} class="hot"{{end}}>{{printf "%.2f" .Similarity}}</td>
      <td>{{range .Keywords}}<span class="tag">{{.}}</span>{{end}}</td>
      {{range .SubSimilarities}}<td{{if ge . 0.8}} class="hot"{{end}}>{{printf "%.2f" .}}</td>{{end}}
    </tr>
    {{end}}
  </table>
</details>
{{end}}
</body>
</html>
`

const databaseTemplate = `<!DOCTYPE html>
<html>
<head><title>feedrank - stored articles</title>
<style>
body { font-family: Arial, sans-serif; padding: 20px; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 8px; }
img.thumb { max-width: 100px; }
</style>
</head>
<body>
<h1>Stored articles</h1>
<table>
<tr><th>Image</th><th>Title</th><th>Link</th><th>Published</th><th>Embedding</th></tr>
{{range .}}
<tr>
  <td>{{if .Image}}<img class="thumb" src="{{.Image}}">{{end}}</td>
  <td><a href="{{.Link}}" target="_blank">{{.Title}}</a></td>
  <td>{{.Link}}</td>
  <td>{{.Published}}</td>
  <td>{{.EmbeddingPreview}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`

const feedsTemplate = `<!DOCTYPE html>
<html>
<head><title>feedrank - feeds</title>
<style>
body { font-family: Arial, sans-serif; padding: 20px; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 8px; }
</style>
</head>
<body>
<h1>Feeds</h1>
<table>
<tr><th>ID</th><th>URL</th><th>Last fetched</th></tr>
{{range .}}
<tr><td>{{.ID}}</td><td>{{.Url}}</td><td>{{.LastFetched}}</td></tr>
{{end}}
</table>
<form method="POST" action="/feeds">
  <input type="text" name="url" size="80" placeholder="RSS Feed URL">
  <button type="submit">Add</button>
</form>
</body>
</html>
`
