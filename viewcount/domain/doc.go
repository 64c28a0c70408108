// Package domain define os tipos e contratos do contador de views.
//
// Este pacote não depende de net/http nem de storage concreto.
// O objetivo é manter as regras de tracking e ranking testáveis em unidade e
// desacopladas de detalhes de infraestrutura.
package domain
