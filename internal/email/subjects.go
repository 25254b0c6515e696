package email

const subjectQuoteGeneratedFmt = "Cotización %s de %s"
