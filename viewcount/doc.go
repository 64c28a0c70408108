// Package viewcount fornece os adapters HTTP (net/http) do contador de views.
//
// Visão geral (camadas):
//
//   - domain: tipos, erros e contratos (sem dependência de net/http)
//   - application: casos de uso (filtro de bots, gate, tracker, ranker) sem net/http
//   - infra: implementações concretas (Redis, memória, token bucket, nonce)
//   - viewcount (este pacote): rotas, handlers, resolução de identidade,
//     middlewares e tradução dos resultados para status e JSON
//
// Fluxo de tracking:
//
//  1. Resolve a identidade do cliente (header do proxy / X-Forwarded-For / RemoteAddr, com hash)
//  2. Chama application.Tracker com os dados do request
//  3. Accepted e Declined respondem 200 (reason diferencia); Rejected responde 4xx/5xx
//
// O binário em cmd/viewcounter monta tudo a partir de variáveis de ambiente,
// como REDIS_ADDR, IDENTITY_SECRET, NONCE_SECRET e THROTTLE_RPS.
package viewcount
