// =============================================================================
// pain.001 Converter - Message Assembler
// =============================================================================
//
// This module turns a debtor account and grouped transactions into the
// element tree of a CstmrCdtTrfInitn document. It is a pure function of its
// inputs: no validation, no I/O, no clock.
//
// XML STRUCTURE:
//   <Document xmlns="...">
//     <CstmrCdtTrfInitn>
//       <GrpHdr>...</GrpHdr>
//       <PmtInf>                     <!-- one per transaction group -->
//         <PmtInfId/><PmtMtd/><BtchBookg/><NbOfTxs/><CtrlSum/>
//         <PmtTpInf/>                <!-- service level, may be omitted -->
//         <ReqdExctnDt/>             <!-- direct or wrapped in <Dt> -->
//         <Dbtr/><DbtrAcct/><DbtrAgt/><ChrgBr/>
//         <CdtTrfTxInf>...</CdtTrfTxInf>  <!-- one per transaction -->
//       </PmtInf>
//     </CstmrCdtTrfInitn>
//   </Document>
//
// VARIANT DIFFERENCES:
//   All schema differences come from schema.Capabilities. The assembler
//   never compares variant names.
//
// =============================================================================

package message

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ginjaninja78/pain001-converter/internal/grouping"
	"github.com/ginjaninja78/pain001-converter/internal/schema"
	"github.com/ginjaninja78/pain001-converter/internal/types"
	"github.com/ginjaninja78/pain001-converter/internal/xmlwriter"
	"github.com/shopspring/decimal"
)

const (
	paymentMethodTransfer = "TRF"
	chargeBearerShared    = "SLEV"
	creationTimeLayout    = "2006-01-02T15:04:05"
	dateLayout            = "2006-01-02"
	xsiNamespace          = "http://www.w3.org/2001/XMLSchema-instance"
)

// Header carries the group header values of a message.
type Header struct {
	// MessageID is emitted as MsgId and prefixes every PmtInfId.
	MessageID string

	// CreatedAt is emitted as CreDtTm.
	CreatedAt time.Time
}

// Assemble builds the document tree for one schema variant.
//
// PARAMETERS:
//   - header: Group header values.
//   - account: The debtor account.
//   - groups: Transaction groups in emission order (see grouping).
//   - caps: Capabilities of the target schema variant.
//
// RETURNS:
//   - The root <Document> element.
//   - An error only if the emitter protocol was violated.
func Assemble(header Header, account types.Account, groups []grouping.Group, caps schema.Capabilities) (*xmlwriter.Element, error) {
	e := xmlwriter.NewEmitter()

	e.Open("Document")
	e.Attr("xmlns", caps.Namespace)
	if caps.SchemaLocation != "" {
		e.Attr("xmlns:xsi", xsiNamespace)
		e.Attr("xsi:schemaLocation", caps.SchemaLocation)
	}

	e.Open("CstmrCdtTrfInitn")
	writeGroupHeader(e, header, account, groups)
	for i, group := range groups {
		writePaymentInformation(e, PaymentInformationID(header.MessageID, i), account, group, caps)
	}
	e.Close()

	e.Close()

	return e.Document()
}

// PaymentInformationID returns the PmtInfId of the group at position index
// (0-based). Group keys are distinct, so positions are unique per message.
func PaymentInformationID(messageID string, index int) string {
	return fmt.Sprintf("%s/%d", messageID, index+1)
}

// =============================================================================
// GROUP HEADER
// =============================================================================

func writeGroupHeader(e *xmlwriter.Emitter, header Header, account types.Account, groups []grouping.Group) {
	count := 0
	total := decimal.Zero
	for _, g := range groups {
		count += len(g.Transactions)
		total = total.Add(g.Total())
	}

	e.Open("GrpHdr")
	e.Leaf("MsgId", header.MessageID)
	e.Leaf("CreDtTm", header.CreatedAt.Format(creationTimeLayout))
	e.Leaf("NbOfTxs", strconv.Itoa(count))
	e.Leaf("CtrlSum", formatAmount(total))
	e.Open("InitgPty")
	e.Leaf("Nm", account.Name)
	e.Close()
	e.Close()
}

// =============================================================================
// PAYMENT INFORMATION
// =============================================================================

func writePaymentInformation(e *xmlwriter.Emitter, id string, account types.Account, group grouping.Group, caps schema.Capabilities) {
	e.Open("PmtInf")
	e.Leaf("PmtInfId", id)
	e.Leaf("PmtMtd", paymentMethodTransfer)
	e.Leaf("BtchBookg", strconv.FormatBool(group.Key.BatchBooking))
	e.Leaf("NbOfTxs", strconv.Itoa(len(group.Transactions)))
	e.Leaf("CtrlSum", formatAmount(group.Total()))

	// PmtTpInf would be empty without its service level, so it goes too.
	if emitsServiceLevel(caps, group.Key.ServiceLevel) {
		e.Open("PmtTpInf")
		e.Open("SvcLvl")
		e.Leaf("Cd", string(group.Key.ServiceLevel))
		e.Close()
		e.Close()
	}

	date := group.Key.RequestedDate.Format(dateLayout)
	if caps.WrapsExecutionDate {
		e.Open("ReqdExctnDt")
		e.Leaf("Dt", date)
		e.Close()
	} else {
		e.Leaf("ReqdExctnDt", date)
	}

	e.Open("Dbtr")
	e.Leaf("Nm", account.Name)
	e.Close()

	writeAccount(e, "DbtrAcct", account.IBAN)

	e.Open("DbtrAgt")
	e.Open("FinInstnId")
	if account.BIC != "" {
		e.Leaf(caps.AgentFieldName(), account.BIC)
	} else {
		e.Open("Othr")
		e.Leaf("Id", types.NotProvided)
		e.Close()
	}
	e.Close()
	e.Close()

	e.Leaf("ChrgBr", chargeBearerShared)

	for _, tx := range group.Transactions {
		writeCreditTransfer(e, tx, caps)
	}

	e.Close()
}

// emitsServiceLevel is false only for variants that drop the SEPA code.
func emitsServiceLevel(caps schema.Capabilities, level types.ServiceLevel) bool {
	return !(caps.OmitsServiceLevelForSEPA && level == types.ServiceLevelSEPA)
}

// =============================================================================
// CREDIT TRANSFER
// =============================================================================

func writeCreditTransfer(e *xmlwriter.Emitter, tx types.Transaction, caps schema.Capabilities) {
	e.Open("CdtTrfTxInf")

	e.Open("PmtId")
	if tx.Instruction != "" {
		e.Leaf("InstrId", tx.Instruction)
	}
	e.Leaf("EndToEndId", tx.Reference)
	e.Close()

	e.Open("Amt")
	e.Leaf("InstdAmt", formatAmount(tx.Amount), xmlwriter.Attr{Name: "Ccy", Value: caps.Currency})
	e.Close()

	if tx.BIC != "" {
		e.Open("CdtrAgt")
		e.Open("FinInstnId")
		e.Leaf(caps.AgentFieldName(), tx.BIC)
		e.Close()
		e.Close()
	}

	e.Open("Cdtr")
	e.Leaf("Nm", tx.Name)
	e.Close()

	writeAccount(e, "CdtrAcct", tx.IBAN)

	if tx.RemittanceInformation != "" {
		e.Open("RmtInf")
		e.Leaf("Ustrd", tx.RemittanceInformation)
		e.Close()
	}

	e.Close()
}

// =============================================================================
// HELPERS
// =============================================================================

// writeAccount emits <name><Id><IBAN>iban</IBAN></Id></name>.
func writeAccount(e *xmlwriter.Emitter, name, iban string) {
	e.Open(name)
	e.Open("Id")
	e.Leaf("IBAN", iban)
	e.Close()
	e.Close()
}

// formatAmount renders exactly two decimals, independent of locale.
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
