package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# Quarry Note Format Contract

Every Markdown note stored in Quarry SHOULD follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL – falls back to first heading, then filename
tags: work, project-x               # OPTIONAL – also extractable inline as #tags
created: 2025-01-15                 # OPTIONAL – ISO-8601 date or datetime
rating: 5                           # Any other key becomes a typed property
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes, either by title ([[Other Note]])
or by relative path ([[folder/note.md]]).
Use [[target|alias]] for display text that differs from the target.
` + "```" + `

## Rules

1. **Front matter is optional** but, when present, the ` + "`" + `---` + "`" + ` fence must be
   the very first line of the file.
2. **Every front-matter key becomes a typed property** (checkbox, number, url,
   date, datetime, list, tags, text). Keep values simple and scalar where possible.
3. **Tags** are lowercase and may contain digits, ` + "`" + `_` + "`" + `, ` + "`" + `-` + "`" + ` and ` + "`" + `/` + "`" + `
   for hierarchy (e.g. ` + "`" + `project/backend` + "`" + `). Inline ` + "`" + `#tags` + "`" + ` in the body
   count too; tags inside code blocks are ignored.
4. **Wikilinks** use double brackets. A path target must end with ` + "`" + `.md` + "`" + `;
   anything else is treated as a title reference and resolved when exactly one
   note carries that title.
5. **Tasks** are checkbox list items: ` + "`" + `- [ ] text` + "`" + ` or ` + "`" + `- [x] text` + "`" + `.
   Append ` + "`" + `📅 YYYY-MM-DD` + "`" + ` for a due date, ` + "`" + `⏳ YYYY-MM-DD` + "`" + ` for a
   scheduled date, and ` + "`" + `⏫` + "`" + `/` + "`" + `🔼` + "`" + `/` + "`" + `🔽` + "`" + ` for priority.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes. Files and
   directories starting with a dot are invisible to the index.
7. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
title: Weekly review 2025-01-20
tags: meeting, project-x
created: 2025-01-20
---

# Weekly review 2025-01-20

Progress on [[Design Doc]] discussed with #team.

## Action items

- [ ] review the [[design/api.md|API draft]] 📅 2025-01-24
- [ ] schedule retro ⏳ 2025-01-27 🔼
- [x] send minutes
` + "```" + `
`
