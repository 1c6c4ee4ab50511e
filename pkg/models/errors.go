package models

import "fmt"

// DataError signale une source de transactions vide ou malformée. Elle interrompt le pipeline.
type DataError struct {
	Line int // 0 si non applicable
	Msg  string
	Err  error
}

func (e *DataError) Error() string {
	msg := e.Msg
	if e.Line > 0 {
		msg = fmt.Sprintf("ligne %d: %s", e.Line, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("data: %s: %v", msg, e.Err)
	}
	return "data: " + msg
}

func (e *DataError) Unwrap() error { return e.Err }

// FitError signale qu'un modèle n'a pas pu être ajusté. Elle interrompt le pipeline.
type FitError struct {
	Model string
	Msg   string
	Err   error
}

func (e *FitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fit %s: %s: %v", e.Model, e.Msg, e.Err)
	}
	return fmt.Sprintf("fit %s: %s", e.Model, e.Msg)
}

func (e *FitError) Unwrap() error { return e.Err }

// ScoringError signale un client qui n'a pas pu être scoré. Non fatale : le client
// est retiré du rapport et listé dans Report.Skipped.
type ScoringError struct {
	CustomerID string `json:"customer_id"`
	Reason     string `json:"reason"`
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("score client=%s: %s", e.CustomerID, e.Reason)
}
