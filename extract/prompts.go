package extract

import "github.com/sweetpotato0/reportflow/prompt"

var datePrompt = prompt.MustTemplate("extract_dates", `Extract the reporting date range from the user's message.

If the user names a relative period, answer with the matching keyword and leave the dates as "N/A":
today, yesterday, this_week, last_week, this_month, last_month, this_year, last_year.

If the user gives explicit dates, answer relative "N/A" and the dates in DD/MM/YYYY. A single explicit date is the from date.

If the message mentions no period at all, answer relative "N/A" and both dates "N/A".

Recent conversation:
{{.history}}

Latest user message:
{{.input}}

Answer with JSON: {"relative": "...", "from_date": "...", "to_date": "..."}.`)

var enumPrompt = prompt.MustTemplate("extract_enum", `Extract the {{.field}} the user asks about, if any.

Valid values: {{.values}}.
Users often abbreviate; known abbreviations: {{.aliases}}.

Answer "{{.def}}" when the message does not mention a {{.field}}.

Recent conversation:
{{.history}}

Latest user message:
{{.input}}

Answer with JSON: {"{{.field}}": "..."} using exactly one of the valid values.`)

var userPrompt = prompt.MustTemplate("extract_user", `Extract the account username the user asks about, if any.

A username is a single token like "player01" or "AG8821". It is NOT a product name, agent level, report name or date. Answer "N/A" when no username is mentioned.

Recent conversation:
{{.history}}

Latest user message:
{{.input}}

Answer with JSON: {"user": "..."}.`)

var topPrompt = prompt.MustTemplate("extract_top", `Extract how many entries the user wants in the ranking, if stated ("top 5", "give me 20"). Answer "N/A" when no count is mentioned.

Latest user message:
{{.input}}

Answer with JSON: {"top": "..."}.`)
