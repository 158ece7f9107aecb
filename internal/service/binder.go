package service

import (
	"sql-orchestrator/internal/db"
)

// declareParameters registers the command's parameters on stmt once, before
// any row runs, and records forwarding edges for output parameters.
func declareParameters(stmt *db.Statement, name string, cmd *Command, outputs *outputStore) {
	for _, np := range cmd.Parameters {
		p := stmt.AddParameter(np.Name, np.Parameter.DbType, np.Parameter.Size)
		if !np.Parameter.Forwards() {
			p.Direction = db.DirectionInput
			continue
		}
		p.Direction = db.DirectionInputOutput
		target := np.Parameter.TargetParameterName
		if target == "" {
			target = np.Name
		}
		outputs.register(
			slot{command: name, parameter: np.Name},
			slot{command: np.Parameter.TargetCommandName, parameter: target},
		)
	}
}

// bindRow sets parameter values for one row. A forwarded value resolved by an
// earlier command takes precedence over the row's own value.
func bindRow(stmt *db.Statement, name string, cmd *Command, outputs *outputStore, row int) {
	for _, p := range stmt.Parameters {
		if v, ok := outputs.valueFor(slot{command: name, parameter: p.Name}); ok {
			p.Value = v
			continue
		}
		p.Value = cmd.Value(p.Name, row)
	}
}
