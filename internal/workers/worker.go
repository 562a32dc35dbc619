package workers

// Worker - фоновая задача со своим расписанием
type Worker interface {
	Start() error
	Stop()
	Name() string
}
