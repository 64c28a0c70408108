// Package infra contém as implementações concretas dos contratos definidos
// no pacote domain.
//
// Exemplos:
//   - RedisViewStore / MemoryViewStore: contagens + registros de rate limit
//   - RedisItemStore / MemoryCatalog: o content store colaborador
//   - ThrottleStore: token bucket por cliente usando golang.org/x/time/rate
//   - Slots: semáforo via channel para o limite de requests em andamento
//   - NonceSigner: tokens anti-forgery HS256
//   - RedisStatsStore / MemoryStatsStore: estatísticas de outcome do tracking
package infra
