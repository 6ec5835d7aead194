package mcpserver

// LinkKindsContract describes the reference kinds and the curation rules
// that LLM consumers should follow when creating link overrides.
const LinkKindsContract = `# Raido Link Curation Contract

Every curated override replaces exactly one reference link for one country.

## Reference kinds

- ` + "`" + `format-spec` + "`" + ` – the technical e-invoicing format specification
  (e.g. Facturae, FatturaPA, Factur-X schema documentation).
- ` + "`" + `legislation` + "`" + ` – the law, decree, or official journal entry that
  mandates or regulates e-invoicing in the country.
- ` + "`" + `news` + "`" + ` – announcements, timelines, and administrative guidance from
  the tax authority.

## Rules

1. **One override per (country, original URL, kind).** Creating a second
   override for the same tuple replaces the first; the old custom URL is gone.
2. **Country codes** are ISO 3166-1 alpha-3 (e.g. ` + "`" + `ESP` + "`" + `, ` + "`" + `FRA` + "`" + `,
   ` + "`" + `DEU` + "`" + `). Case does not matter on input; codes are stored uppercase.
3. **The original URL must match the dataset verbatim.** Do not normalize or
   shorten it yourself; the resolver matches on the exact stored string.
4. **The custom URL must be a working, canonical page** on the authority's own
   domain whenever one exists. Prefer ` + "`" + `https` + "`" + ` and consolidated
   versions of legal texts over point-in-time snapshots.
5. **Title is required** and should name the document, not the website
   (e.g. ` + "`" + `Ley 25/2013` + "`" + `, not ` + "`" + `BOE` + "`" + `).
6. **Overrides go stale.** When the upstream dataset is updated after an
   override was curated, the original link wins again until the override is
   re-curated. Re-create the override to refresh its curation date.
7. **Deleting an override is soft.** The tuple falls back to the original URL;
   history is kept but never resolved.

## Example

` + "```" + `json
{
  "country": "ESP",
  "kind": "legislation",
  "original_url": "https://www.boe.es/buscar/act.php?id=BOE-A-2013-12886",
  "custom_url": "https://www.boe.es/eli/es/l/2013/12/27/25/con",
  "title": "Ley 25/2013",
  "notes": "Old buscar URL intermittently 404s; ELI consolidated text is stable."
}
` + "```" + `
`
