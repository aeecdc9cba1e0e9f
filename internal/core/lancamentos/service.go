package lancamentos

import (
	"fmt"
	"io"

	"lancamentos-service/internal/domain"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Service define a interface do serviço de conversão de lançamentos contábeis.
type Service interface {
	ProcessLancamentosFile(lancamentosFile io.Reader) (*domain.ResultadoLancamentos, error)
	LinhasExibicao(resultado *domain.ResultadoLancamentos) []string
	GerarCSVLancamentos(resultado *domain.ResultadoLancamentos) ([]byte, error)
	GerarCSVComContas(resultado *domain.ResultadoLancamentos, contasFile io.Reader, classPrefixes []string) ([]byte, error)
	GerarXLSXLancamentos(resultado *domain.ResultadoLancamentos) ([]byte, error)
}

type service struct{}

// NewService cria uma nova instância do serviço de lançamentos.
func NewService() Service {
	return &service{}
}

// ProcessLancamentosFile executa o pipeline completo sobre um arquivo de
// exportação: decodifica (ISO-8859-1), faz o parse dos registros de largura
// fixa, monta os lançamentos, classifica os históricos e normaliza os grupos.
// Entrada malformada nunca falha o processamento: o resultado carrega os
// lançamentos aproveitáveis mais as listas de erros e avisos.
func (svc *service) ProcessLancamentosFile(lancamentosFile io.Reader) (*domain.ResultadoLancamentos, error) {
	decoder := charmap.ISO8859_1.NewDecoder()
	conteudo, err := io.ReadAll(transform.NewReader(lancamentosFile, decoder))
	if err != nil {
		return nil, fmt.Errorf("erro ao ler arquivo de lançamentos: %w", err)
	}

	cabecalho, montados, erros := parseConteudo(string(conteudo))
	classificados := classificarLancamentos(montados)
	rows, avisos := transformarLancamentos(classificados)

	return &domain.ResultadoLancamentos{
		Cabecalho: cabecalho,
		Rows:      rows,
		Avisos:    avisos,
		Erros:     erros,
	}, nil
}

// LinhasExibicao renderiza o resultado como linhas de conferência pipe-delimitadas.
func (svc *service) LinhasExibicao(resultado *domain.ResultadoLancamentos) []string {
	return linhasExibicao(resultado.Rows)
}

// GerarCSVLancamentos gera o export tabular com numeração de lotes.
func (svc *service) GerarCSVLancamentos(resultado *domain.ResultadoLancamentos) ([]byte, error) {
	return gerarCSVLancamentos(resultado.Rows)
}

// GerarCSVComContas gera o export tabular com a coluna de conta da
// contraparte resolvida contra o plano de contas enviado.
func (svc *service) GerarCSVComContas(resultado *domain.ResultadoLancamentos, contasFile io.Reader, classPrefixes []string) ([]byte, error) {
	contasMap, descricaoIndex, err := lerPlanoContas(contasFile)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar arquivo de contas: %w", err)
	}
	return gerarCSVComContas(resultado.Rows, contasMap, descricaoIndex, classPrefixes)
}

// GerarXLSXLancamentos gera o export tabular como planilha.
func (svc *service) GerarXLSXLancamentos(resultado *domain.ResultadoLancamentos) ([]byte, error) {
	return gerarXLSXLancamentos(resultado.Rows)
}
