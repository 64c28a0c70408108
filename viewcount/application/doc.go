// Package application contém os casos de uso do contador de views: filtro de bots,
// gate de deduplicação, tracking de views, ranking "mais lidos", throttle de requests
// e limite de requests em andamento.
//
// Depende apenas do pacote domain e não conhece net/http.
// Ex.: Tracker.Track(req) retorna um TrackResult (accepted/declined/rejected).
package application
