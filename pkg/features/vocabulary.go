package features

// vocabulary lists every neighbourhood the deployed model was trained on, in
// one-hot slot order (byte-wise ascending, as the training pipeline emitted the
// dummy columns). Never mutate it; changing it invalidates the model.
var vocabulary = [...]string{
	"AEROPORTO",
	"ANDORINHAS",
	"ANTÔNIO HONÓRIO",
	"ARIOVALDO FAVALESSA",
	"BARRO VERMELHO",
	"BELA VISTA",
	"BENTO FERREIRA",
	"BOA VISTA",
	"BONFIM",
	"CARATOÍRA",
	"CENTRO",
	"COMDUSA",
	"CONQUISTA",
	"CONSOLAÇÃO",
	"CRUZAMENTO",
	"DA PENHA",
	"DE LOURDES",
	"DO CABRAL",
	"DO MOSCOSO",
	"DO QUADRO",
	"ENSEADA DO SUÁ",
	"ESTRELINHA",
	"FONTE GRANDE",
	"FORTE SÃO JOÃO",
	"FRADINHOS",
	"GOIABEIRAS",
	"GRANDE VITÓRIA",
	"GURIGICA",
	"HORTO",
	"ILHA DAS CAIEIRAS",
	"ILHA DE SANTA MARIA",
	"ILHA DO BOI",
	"ILHA DO FRADE",
	"ILHA DO PRÍNCIPE",
	"ILHAS OCEÂNICAS DE TRINDADE",
	"INHANGUETÁ",
	"ITARARÉ",
	"JABOUR",
	"JARDIM CAMBURI",
	"JARDIM DA PENHA",
	"JESUS DE NAZARETH",
	"JOANA D´ARC",
	"JUCUTUQUARA",
	"MARIA ORTIZ",
	"MARUÍPE",
	"MATA DA PRAIA",
	"MONTE BELO",
	"MORADA DE CAMBURI",
	"MÁRIO CYPRESTE",
	"NAZARETH",
	"NOVA PALESTINA",
	"PARQUE INDUSTRIAL",
	"PARQUE MOSCOSO",
	"PIEDADE",
	"PONTAL DE CAMBURI",
	"PRAIA DO CANTO",
	"PRAIA DO SUÁ",
	"REDENÇÃO",
	"REPÚBLICA",
	"RESISTÊNCIA",
	"ROMÃO",
	"SANTA CECÍLIA",
	"SANTA CLARA",
	"SANTA HELENA",
	"SANTA LUÍZA",
	"SANTA LÚCIA",
	"SANTA MARTHA",
	"SANTA TEREZA",
	"SANTO ANDRÉ",
	"SANTO ANTÔNIO",
	"SANTOS DUMONT",
	"SANTOS REIS",
	"SEGURANÇA DO LAR",
	"SOLON BORGES",
	"SÃO BENEDITO",
	"SÃO CRISTÓVÃO",
	"SÃO JOSÉ",
	"SÃO PEDRO",
	"TABUAZEIRO",
	"UNIVERSITÁRIO",
	"VILA RUBIM",
}

var vocabularyIndex = buildVocabularyIndex()

func buildVocabularyIndex() map[string]int {
	idx := make(map[string]int, len(vocabulary))
	for i, name := range vocabulary {
		idx[name] = i
	}
	return idx
}

// Vocabulary returns a copy of the neighbourhood names in slot order.
func Vocabulary() []string {
	out := make([]string, len(vocabulary))
	copy(out, vocabulary[:])
	return out
}

// VocabularySize is the width of the one-hot block.
func VocabularySize() int {
	return len(vocabulary)
}

// NeighbourhoodSlot returns the one-hot slot for name. Matching is exact.
func NeighbourhoodSlot(name string) (int, bool) {
	i, ok := vocabularyIndex[name]
	return i, ok
}
