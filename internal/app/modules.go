package app

import (
	"github.com/specialistvlad/ruleforge/internal/rule"
	"github.com/specialistvlad/ruleforge/modules/cxx"
	"github.com/specialistvlad/ruleforge/modules/platform"
	"github.com/specialistvlad/ruleforge/modules/python"
)

// coreModules is the definitive list of all modules that are compiled into
// the ruleforge binary.
var coreModules = []rule.Module{
	&cxx.Module{},
	&python.Module{},
	&platform.Module{},
}
