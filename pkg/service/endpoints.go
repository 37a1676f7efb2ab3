package service

// GTEx Portal API v2 endpoint paths, relative to the configured base URL.
const (
	// Reference endpoints
	endpointGeneSearch   = "reference/geneSearch"
	endpointGene         = "reference/gene"
	endpointTranscript   = "reference/transcript"
	endpointExon         = "reference/exon"
	endpointNeighborGene = "reference/neighborGene"

	// Expression endpoints
	endpointMedianGeneExpression        = "expression/medianGeneExpression"
	endpointMedianTranscriptExpression  = "expression/medianTranscriptExpression"
	endpointMedianExonExpression        = "expression/medianExonExpression"
	endpointMedianJunctionExpression    = "expression/medianJunctionExpression"
	endpointTopExpressedGene            = "expression/topExpressedGene"
	endpointGeneExpression              = "expression/geneExpression"
	endpointSingleNucleusGeneExpression = "expression/singleNucleusGeneExpression"

	// Dataset endpoints
	endpointTissueSiteDetail  = "dataset/tissueSiteDetail"
	endpointSample            = "dataset/sample"
	endpointSubject           = "dataset/subject"
	endpointVariant           = "dataset/variant"
	endpointVariantByLocation = "dataset/variantByLocation"

	// Service info lives at the API root.
	endpointServiceInfo = ""
)
