package planner

// mockLogger is a recording implementation of logger.Logger for testing
type mockLogger struct {
	phaseStarts    []phaseCall
	itemsProcessed []itemCall
	phaseCompletes []phaseCall
}

type phaseCall struct {
	phase string
	count int
}

type itemCall struct {
	phase  string
	item   string
	action string
}

func (m *mockLogger) PhaseStart(phase string, totalItems int) {
	m.phaseStarts = append(m.phaseStarts, phaseCall{phase, totalItems})
}

func (m *mockLogger) ItemProcessed(phase string, item string, action string) {
	m.itemsProcessed = append(m.itemsProcessed, itemCall{phase, item, action})
}

func (m *mockLogger) PhaseComplete(phase string, processedItems int) {
	m.phaseCompletes = append(m.phaseCompletes, phaseCall{phase, processedItems})
}
