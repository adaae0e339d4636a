package rag

import "compdash/internal/detect"

// builtinClauses is the seeded regulation corpus: condensed PCI-DSS v4.0,
// GDPR, and CCPA obligations relevant to the detectors.
var builtinClauses = []Clause{
	{
		ID:        "pci-3.2.1",
		Framework: detect.FrameworkPCIDSS,
		Ref:       "PCI-DSS 3.2.1",
		Text:      "Account data storage is kept to a minimum through data retention and disposal policies. Primary Account Number (PAN) must not be stored or transmitted in plaintext in logs, support tickets, customer communications, or any unencrypted format.",
	},
	{
		ID:        "pci-3.3",
		Framework: detect.FrameworkPCIDSS,
		Ref:       "PCI-DSS 3.3",
		Text:      "Sensitive authentication data is not stored after authorization. Card Verification Value (CVV, CVV2, CVC) must not be stored under any circumstances after transaction authorization, including in logs, databases, support systems, or backup media.",
	},
	{
		ID:        "pci-3.4",
		Framework: detect.FrameworkPCIDSS,
		Ref:       "PCI-DSS 3.4",
		Text:      "PAN must be rendered unreadable anywhere it is stored using strong cryptography, truncation, or index tokens. When PAN must be displayed, mask it showing at most the first six and last four digits.",
	},
	{
		ID:        "pci-4.2",
		Framework: detect.FrameworkPCIDSS,
		Ref:       "PCI-DSS 4.2",
		Text:      "Never send unprotected PANs by end-user messaging technologies such as e-mail, instant messaging, SMS, or chat. Implement strong cryptography for transmission, for example TLS or end-to-end encryption.",
	},
	{
		ID:        "pci-10.2",
		Framework: detect.FrameworkPCIDSS,
		Ref:       "PCI-DSS 10.2",
		Text:      "All access to cardholder data must be logged with user identification, event type, date and time, and success or failure. Audit logs must not contain full PAN or sensitive authentication data.",
	},
	{
		ID:        "gdpr-art5",
		Framework: detect.FrameworkGDPR,
		Ref:       "GDPR Art 5",
		Text:      "Personal data shall be processed lawfully, fairly and transparently; collected for specified purposes; adequate and limited to what is necessary; accurate; and kept no longer than necessary (data minimisation and storage limitation).",
	},
	{
		ID:        "gdpr-art17",
		Framework: detect.FrameworkGDPR,
		Ref:       "GDPR Art 17",
		Text:      "The data subject has the right to erasure: the controller must erase personal data without undue delay where the data are no longer necessary, consent is withdrawn, or the data were unlawfully processed.",
	},
	{
		ID:        "gdpr-art32",
		Framework: detect.FrameworkGDPR,
		Ref:       "GDPR Art 32",
		Text:      "The controller and processor shall implement appropriate technical and organisational measures to ensure security of personal data, including pseudonymisation, encryption, and the ability to restore availability after an incident.",
	},
	{
		ID:        "gdpr-art33",
		Framework: detect.FrameworkGDPR,
		Ref:       "GDPR Art 33",
		Text:      "In the case of a personal data breach, the controller shall notify the supervisory authority without undue delay and, where feasible, not later than 72 hours after having become aware of it.",
	},
	{
		ID:        "ccpa-1798.100",
		Framework: detect.FrameworkCCPA,
		Ref:       "CCPA 1798.100",
		Text:      "A consumer has the right to request that a business disclose the categories and specific pieces of personal information the business has collected, the sources, and the business purpose for collecting or selling it.",
	},
	{
		ID:        "ccpa-1798.81.5",
		Framework: detect.FrameworkCCPA,
		Ref:       "CCPA 1798.81.5",
		Text:      "A business that owns, licenses, or maintains personal information about a California resident shall implement and maintain reasonable security procedures and practices appropriate to the nature of the information, including social security numbers and driver's license numbers.",
	},
	{
		ID:        "ccpa-1798.105",
		Framework: detect.FrameworkCCPA,
		Ref:       "CCPA 1798.105",
		Text:      "A consumer has the right to request deletion of personal information collected by the business; the business shall delete the information from its records and direct service providers to do the same.",
	},
}
