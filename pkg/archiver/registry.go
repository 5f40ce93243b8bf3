package archiver

import (
	"fmt"
	"os/exec"
	"sort"

	"github.com/praetorian-inc/burrow/pkg/types"
)

// Constructor declares one capability: the executable to look for on PATH and
// how to build the adapter once found. An empty Executable marks an
// in-process capability that always registers.
type Constructor struct {
	Name       string
	Executable string
	Build      func(path string) Capability
}

// DefaultConstructors returns the built-in capability set. The slice order is
// the registration order, and the first registered capability wins when claim
// sets overlap, so the in-process fallback comes last: an installed tool
// always takes precedence for the formats both claim.
func DefaultConstructors() []Constructor {
	return []Constructor{
		{Name: "7z", Executable: "7z", Build: func(path string) Capability { return NewSevenZip(path) }},
		{Name: "unar", Executable: "unar", Build: func(path string) Capability { return NewUnar(path) }},
		{Name: "pea", Executable: "pea", Build: func(path string) Capability { return NewPea(path) }},
		{Name: "native", Build: func(string) Capability { return NewNative() }},
	}
}

// Registry resolves which capabilities the host can actually run and answers
// coverage queries for the policy engine and operator tooling.
type Registry struct {
	constructors []Constructor
	capabilities []Capability

	// lookPath resolves executables on PATH; swapped out in tests.
	lookPath func(file string) (string, error)
}

// NewRegistry builds a registry over the given constructors. It does not
// touch PATH; call Locate to discover what is runnable.
func NewRegistry(constructors ...Constructor) *Registry {
	return &Registry{
		constructors: constructors,
		lookPath:     exec.LookPath,
	}
}

// Locate resolves each constructor's executable and registers the runnable
// ones. A missing tool yields a MISSING_ARCHIVER warning and an absent
// capability, never an error: hosts degrade to whatever coverage remains.
func (r *Registry) Locate() []types.Warning {
	r.capabilities = r.capabilities[:0]
	var warnings []types.Warning
	for _, c := range r.constructors {
		if c.Executable == "" {
			r.capabilities = append(r.capabilities, c.Build(""))
			continue
		}
		path, err := r.lookPath(c.Executable)
		if err != nil {
			warnings = append(warnings, types.NewWarning(
				types.WarnMissingArchiver, "",
				fmt.Sprintf("could not find %s; some archive types may not be supported", c.Name),
			))
			continue
		}
		r.capabilities = append(r.capabilities, c.Build(path))
	}
	return warnings
}

// CapabilityFor returns the first registered capability claiming either the
// MIME type or the extension, or nil when nothing does. Inputs are expected
// lower-cased, extension without the leading dot.
func (r *Registry) CapabilityFor(mimeType, extension string) Capability {
	for _, c := range r.capabilities {
		if c.Claims(mimeType, extension) {
			return c
		}
	}
	return nil
}

// Capabilities returns the located capabilities in registration order.
func (r *Registry) Capabilities() []Capability {
	out := make([]Capability, len(r.capabilities))
	copy(out, r.capabilities)
	return out
}

// SupportedExtensions returns the sorted union of extensions claimed by the
// located capabilities.
func (r *Registry) SupportedExtensions() []string {
	return sortedUnion(r.capabilities, Capability.Extensions)
}

// SupportedMIMETypes returns the sorted union of MIME types claimed by the
// located capabilities.
func (r *Registry) SupportedMIMETypes() []string {
	return sortedUnion(r.capabilities, Capability.MIMETypes)
}

// UnsupportedExtensions returns the sorted extensions that some known
// constructor could claim but no located capability does: the coverage lost
// to missing tools.
func (r *Registry) UnsupportedExtensions() []string {
	return subtract(r.declaredUnion(Capability.Extensions), r.SupportedExtensions())
}

// UnsupportedMIMETypes is UnsupportedExtensions for MIME types.
func (r *Registry) UnsupportedMIMETypes() []string {
	return subtract(r.declaredUnion(Capability.MIMETypes), r.SupportedMIMETypes())
}

// declaredUnion collects coverage across every constructor regardless of
// whether its tool was found, building each adapter with a placeholder path.
func (r *Registry) declaredUnion(get func(Capability) []string) []string {
	all := make([]Capability, 0, len(r.constructors))
	for _, c := range r.constructors {
		all = append(all, c.Build(c.Executable))
	}
	return sortedUnion(all, get)
}

func sortedUnion(capabilities []Capability, get func(Capability) []string) []string {
	seen := make(map[string]struct{})
	for _, c := range capabilities {
		for _, v := range get(c) {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// subtract returns the sorted members of all that are absent from covered.
func subtract(all, covered []string) []string {
	have := make(map[string]struct{}, len(covered))
	for _, v := range covered {
		have[v] = struct{}{}
	}
	var out []string
	for _, v := range all {
		if _, ok := have[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
