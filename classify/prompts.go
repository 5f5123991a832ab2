package classify

import "github.com/sweetpotato0/reportflow/prompt"

var casualPrompt = prompt.MustTemplate("classify_casual", `You classify messages sent to a reporting assistant.

The assistant serves these reports:
{{.catalogue}}

Decide whether the latest user message is casual conversation (greetings, thanks, small talk, questions unrelated to any report) or a reporting request (naming a report, a date range, a product, an agent level, a username, or answering a question the assistant asked about one of those).

Recent conversation:
{{.history}}

Latest user message:
{{.input}}

Answer with JSON: {"is_casual": 1} for casual conversation, {"is_casual": 0} otherwise. When unsure, answer 0.`)

var confirmPrompt = prompt.MustTemplate("classify_confirm", `You detect whether the user is agreeing to run a report request the assistant just summarized.

Agreement phrases include: yes, yep, yeah, ok, okay, sure, correct, confirm, confirmed, go ahead, proceed, run it, do it, that's right, looks good, 对, 好的, 确认.

It is NOT agreement when the user changes any parameter, asks a question, declines, or starts a new request.

Recent conversation:
{{.history}}

Latest user message:
{{.input}}

Answer with JSON: {"is_confirmed": 1} or {"is_confirmed": 0}. When unsure, answer 0.`)

var removalPrompt = prompt.MustTemplate("classify_removal", `The user is refining a report request that has these parameters: {{.fields}}.

Detect which parameters the user asks to DROP or CLEAR in the latest message, e.g. "remove the username", "all products please", "never mind the agent level", "clear the dates".

Only list a parameter when the user explicitly asks for it to be removed or widened back to everything. Supplying a new value for a parameter is not removal.

Latest user message:
{{.input}}

Answer with JSON: {"removed_fields": [...]} using only the parameter names given above. Answer {"removed_fields": []} when nothing is removed.`)

var selectorPrompt = prompt.MustTemplate("classify_selector", `You resolve which report the user wants.

Available reports:
{{.catalogue}}

Users often use abbreviations; the glossary above lists them per report.
{{if .candidates}}
A text search over report names suggests these candidates, most likely first:
{{.candidates}}
{{end}}
Recent conversation:
{{.history}}

Latest user message:
{{.input}}

Answer with JSON: {"function_called": "<endpoint>"} where <endpoint> is one of the endpoint values listed above, or "N/A" when the message names no report and the conversation has no pending one.`)
