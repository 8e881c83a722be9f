// Package page describes a single routable page: the request a compile runs
// against (pathname plus build options) and the ordered components that form
// the page body.
//
// Pages are declared in a page.yaml definition file placed in the page's
// folder below pages/. The definition's directory, relative to pages/, is the
// page pathname and also the location of its build output below build/.
//
// Components form a closed union decided when the definition is loaded:
// Rendered output produced by a renderer (markdown, template) and Raw markup
// copied verbatim. Neither kind is escaped.
package page
