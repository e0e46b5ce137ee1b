package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is a named list of steps built by a Lua script.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one recorded DSL call.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile runs the Lua script at path and returns the Scenario
// it builds. The script must return the Scenario value.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLuaTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerLuaTypes(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	state.PushUserData(&Scenario{Name: name})
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "character", Function: scenarioCharacter},
	{Name: "use", Function: scenarioUse},
	{Name: "priority", Function: scenarioPriority},
	{Name: "set", Function: scenarioSet},
	{Name: "attribute", Function: namedTrait("attribute")},
	{Name: "ability", Function: namedTrait("ability")},
	{Name: "sphere", Function: namedTrait("sphere")},
	{Name: "background", Function: namedTrait("background")},
	{Name: "arete", Function: scalarTrait("arete")},
	{Name: "willpower", Function: scalarTrait("willpower")},
	{Name: "quintessence", Function: scalarTrait("quintessence")},
	{Name: "quote", Function: scenarioQuote},
	{Name: "affinity", Function: scenarioAffinity},
	{Name: "advance", Function: scenarioAdvance},
	{Name: "award", Function: scenarioAward},
	{Name: "merit", Function: quality("merit")},
	{Name: "flaw", Function: quality("flaw")},
	{Name: "expect_rating", Function: scenarioExpectRating},
	{Name: "expect_regime", Function: scenarioExpectRegime},
	{Name: "expect_points", Function: scenarioExpectPoints},
	{Name: "expect_reasons", Function: scenarioExpectReasons},
	{Name: "expect_ready", Function: scenarioExpectReady},
}

// scenarioCharacter creates a character and makes it the target of the
// following steps.
func scenarioCharacter(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if requiredString(data, "name") == "" {
		lua.Errorf(state, "character name is required")
	}
	appendStep(scenario, "character", data)
	state.PushValue(1)
	return 1
}

func scenarioUse(state *lua.State) int {
	scenario := checkScenario(state)
	name := lua.CheckString(state, 2)
	appendStep(scenario, "use", map[string]any{"name": name})
	state.PushValue(1)
	return 1
}

func scenarioPriority(state *lua.State) int {
	scenario := checkScenario(state)
	data := optionalTable(state, 5)
	data["axis"] = lua.CheckString(state, 2)
	data["category"] = lua.CheckString(state, 3)
	data["priority"] = lua.CheckString(state, 4)
	appendStep(scenario, "priority", data)
	state.PushValue(1)
	return 1
}

// scenarioSet records a change by trait key, e.g. set("attribute:Strength", 3).
func scenarioSet(state *lua.State) int {
	scenario := checkScenario(state)
	data := optionalTable(state, 4)
	data["trait"] = lua.CheckString(state, 2)
	data["rating"] = lua.CheckInteger(state, 3)
	appendStep(scenario, "change", data)
	state.PushValue(1)
	return 1
}

func namedTrait(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		data := optionalTable(state, 4)
		data["trait"] = kind + ":" + lua.CheckString(state, 2)
		data["rating"] = lua.CheckInteger(state, 3)
		appendStep(scenario, "change", data)
		state.PushValue(1)
		return 1
	}
}

func scalarTrait(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		data := optionalTable(state, 3)
		data["trait"] = kind
		data["rating"] = lua.CheckInteger(state, 2)
		appendStep(scenario, "change", data)
		state.PushValue(1)
		return 1
	}
}

func scenarioQuote(state *lua.State) int {
	scenario := checkScenario(state)
	data := optionalTable(state, 4)
	data["trait"] = lua.CheckString(state, 2)
	data["rating"] = lua.CheckInteger(state, 3)
	appendStep(scenario, "quote", data)
	state.PushValue(1)
	return 1
}

func scenarioAffinity(state *lua.State) int {
	scenario := checkScenario(state)
	data := optionalTable(state, 3)
	data["sphere"] = lua.OptString(state, 2, "")
	appendStep(scenario, "affinity", data)
	state.PushValue(1)
	return 1
}

func scenarioAdvance(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "advance", optionalTable(state, 2))
	state.PushValue(1)
	return 1
}

func scenarioAward(state *lua.State) int {
	scenario := checkScenario(state)
	data := optionalTable(state, 4)
	data["amount"] = lua.CheckInteger(state, 2)
	data["note"] = lua.OptString(state, 3, "")
	appendStep(scenario, "award", data)
	state.PushValue(1)
	return 1
}

func quality(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		data := optionalTable(state, 3)
		data["name"] = lua.CheckString(state, 2)
		appendStep(scenario, kind, data)
		state.PushValue(1)
		return 1
	}
}

func scenarioExpectRating(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "expect_rating", map[string]any{
		"trait":  lua.CheckString(state, 2),
		"rating": lua.CheckInteger(state, 3),
	})
	state.PushValue(1)
	return 1
}

func scenarioExpectRegime(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "expect_regime", map[string]any{"regime": lua.CheckString(state, 2)})
	state.PushValue(1)
	return 1
}

// scenarioExpectPoints takes {freebie = n, experience = n}; missing keys are
// not checked.
func scenarioExpectPoints(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "expect_points", tableToMap(state, 2))
	state.PushValue(1)
	return 1
}

// scenarioExpectReasons takes the ordered list of reason codes CanAdvance
// should report.
func scenarioExpectReasons(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	codes, _ := tableToGo(state, 2).([]any)
	appendStep(scenario, "expect_reasons", map[string]any{"codes": codes})
	state.PushValue(1)
	return 1
}

func scenarioExpectReady(state *lua.State) int {
	scenario := checkScenario(state)
	ready := true
	if !state.IsNoneOrNil(2) {
		ready = state.ToBoolean(2)
	}
	appendStep(scenario, "expect_ready", map[string]any{"ready": ready})
	state.PushValue(1)
	return 1
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) int {
	if scenario == nil {
		return -1
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
	return len(scenario.Steps) - 1
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
