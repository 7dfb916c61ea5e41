package services

import "html/template"

const baseStyle = `body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: linear-gradient(135deg, #3b82f6, #8b5cf6); color: white; padding: 30px; border-radius: 10px; text-align: center; margin-bottom: 30px; }
.header h1 { margin: 0; font-size: 28px; }
.section { background: #f8f9fa; padding: 20px; margin: 20px 0; border-radius: 8px; border-left: 4px solid #3b82f6; }
.section h2 { color: #3b82f6; margin-top: 0; }
.timing-item { background: white; padding: 15px; margin: 10px 0; border-radius: 6px; }
.time-range { font-weight: bold; color: #3b82f6; }
.category { padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; }
.quote { background: #fff3cd; border: 1px solid #ffeaa7; padding: 20px; border-radius: 8px; font-style: italic; text-align: center; margin: 20px 0; }
.footer { text-align: center; color: #666; font-size: 12px; margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; }`

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Subject}}</title>
<style>` + baseStyle + `</style>
</head>
<body>
<div class="header">
<h1>Your Daily Good Timings</h1>
<p>{{.LongDate}}</p>
</div>
<div class="section">
<h2>Today's Good Timings</h2>
{{- range .Timings}}
<div class="timing-item">
<div class="time-range">{{.StartTime}} - {{.EndTime}}</div>
<div class="category" data-color="{{.CategoryColor}}">{{.CategoryName}}</div>
{{- if .Description}}
<p style="margin: 8px 0 0 0; color: #666;">{{.Description}}</p>
{{- end}}
</div>
{{- else}}
<p>No timings scheduled for today. Enjoy your free time!</p>
{{- end}}
</div>
{{- with .Daylight}}
<div class="section">
<h2>Daylight Information</h2>
<p><strong>Sunrise:</strong> {{.SunriseTime}}</p>
<p><strong>Sunset:</strong> {{.SunsetTime}}</p>
{{- if .Timezone}}
<p style="color: #666;">Timezone: {{.Timezone}}</p>
{{- end}}
</div>
{{- end}}
<div class="quote">
<h3 style="margin: 0 0 10px 0; color: #856404;">Quote of the Day</h3>
<p style="margin: 0; font-size: 16px;">"{{.Quote}}"</p>
</div>
<div class="footer">
<p>Thank you for subscribing to DVS Daily Newsletter!</p>
<p>To unsubscribe, click <a href="{{.UnsubscribeURL}}">here</a></p>
</div>
</body>
</html>
`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Welcome to DVS Daily Newsletter</title>
<style>` + baseStyle + `</style>
</head>
<body>
<div class="header">
<h1>Welcome to DVS Daily Newsletter!</h1>
<p>You're all set to receive your daily updates</p>
</div>
<div class="section">
<h2>Thank you for subscribing!</h2>
<p>Starting tomorrow you'll receive a daily email with:</p>
<ul>
<li><strong>Daily Good Timings</strong>: your schedule for the day</li>
<li><strong>Sunrise &amp; Sunset Times</strong></li>
<li><strong>Daily Inspiration</strong>: a quote to start your day</li>
</ul>
</div>
<div class="footer">
<p>This email was sent to {{.Email}}</p>
<p>To unsubscribe, <a href="{{.UnsubscribeURL}}">click here</a></p>
</div>
</body>
</html>
`))

var testTemplate = template.Must(template.New("test").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>DVS Email Test</title>
<style>` + baseStyle + `</style>
</head>
<body>
<div class="header">
<h1>Email Test Successful!</h1>
<p>DVS Newsletter System is working</p>
</div>
<div class="section">
<h2>Test Details:</h2>
<ul>
<li><strong>Time:</strong> {{.Time}}</li>
<li><strong>Recipient:</strong> {{.Email}}</li>
</ul>
<p>If you received this email, the newsletter system is ready to send daily updates.</p>
</div>
</body>
</html>
`))
