package models

import "strings"

// Archetype identifies one of the fixed portal identities in the ecosystem.
// Each archetype owns a distinct capability table.
type Archetype string

const (
	ArchetypeBanker      Archetype = "xuvebanker"
	ArchetypeMark        Archetype = "xuvemark"
	ArchetypeTeam        Archetype = "xuveteam"
	ArchetypeVault       Archetype = "xuvevault"
	ArchetypeOps         Archetype = "xuveops"
	ArchetypeCode        Archetype = "xuvecode"
	ArchetypeCast        Archetype = "xuvecast"
	ArchetypeMirror      Archetype = "xuvemirror"
	ArchetypeHome        Archetype = "xuvehome"
	ArchetypeWisdom      Archetype = "xuvewisdom"
	ArchetypeTeach       Archetype = "xuveteach"
	ArchetypeRitual      Archetype = "xuveritual"
	ArchetypeOnboard     Archetype = "xuveonboard"
	ArchetypeWell        Archetype = "xuvewell"
	ArchetypeFamily      Archetype = "xuvefamily"
	ArchetypeJobs        Archetype = "xuvejobs"
	ArchetypeFleet       Archetype = "xuvefleet"
	ArchetypeSponsorship Archetype = "xuvesponsorship"
	ArchetypeSound       Archetype = "xuvesound"
	ArchetypeCreator     Archetype = "xuvecreator"
	ArchetypePulse       Archetype = "xuvepulse"
	ArchetypeLegal       Archetype = "xuvelegal"
)

// Archetypes lists every archetype in registration order.
var Archetypes = []Archetype{
	ArchetypeBanker, ArchetypeMark, ArchetypeTeam, ArchetypeVault,
	ArchetypeOps, ArchetypeCode, ArchetypeCast, ArchetypeMirror,
	ArchetypeHome, ArchetypeWisdom, ArchetypeTeach, ArchetypeRitual,
	ArchetypeOnboard, ArchetypeWell, ArchetypeFamily, ArchetypeJobs,
	ArchetypeFleet, ArchetypeSponsorship, ArchetypeSound, ArchetypeCreator,
	ArchetypePulse, ArchetypeLegal,
}

// DisplayName returns the presentation form of the archetype name,
// e.g. "xuvemark" -> "Xuvemark".
func (a Archetype) DisplayName() string {
	if a == "" {
		return ""
	}
	s := string(a)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Capability is a named feature flag unlocked by a portal tier.
type Capability string
