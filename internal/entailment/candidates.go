package entailment

import (
	"github.com/funvibe/lumen/internal/environment"
	"github.com/funvibe/lumen/internal/typesystem"
)

// moduleScope computes the module keys a constraint may draw dictionaries
// from: the local level first, then the current module, then the module of
// every type constructor mentioned by the wanted arguments.
func moduleScope(currentModule string, wanted []typesystem.Type) []string {
	scope := []string{environment.LocalModule}
	seen := map[string]bool{environment.LocalModule: true}
	appendModule := func(module string) {
		if module != "" && !seen[module] {
			seen[module] = true
			scope = append(scope, module)
		}
	}
	appendModule(currentModule)
	for _, t := range wanted {
		typesystem.EverywhereOnType(t, func(t typesystem.Type) {
			if tc, ok := t.(typesystem.TypeConstructor); ok {
				appendModule(tc.Name.Module)
			}
		})
	}
	return scope
}

// findCandidates returns the user-visible dictionaries for a class, scoped
// to the modules the wanted arguments can see.
func findCandidates(ctx environment.InstanceContext, currentModule string, class typesystem.Qualified, wanted []typesystem.Type) []*environment.InstanceDescriptor {
	return ctx.FindDictionaries(class, moduleScope(currentModule, wanted))
}
