// Package server is the thin HTTP entry layer. Handlers translate between
// REST shapes and domain calls; the domain never sees http types.
package server

type Server struct {
	ScanServer
	ScheduleServer
}

func NewServer(
	scanServer ScanServer,
	scheduleServer ScheduleServer,
) Server {
	return Server{
		ScanServer:     scanServer,
		ScheduleServer: scheduleServer,
	}
}
