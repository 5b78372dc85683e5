package wsdl

import (
	"fmt"

	"csfe-soap/internal/consts"
)

func GetWSDL(port int) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<definitions name="MockCSFEService"
    targetNamespace="%[1]s"
    xmlns:tns="%[1]s"
    xmlns:adm="%[2]s"
    xmlns:soap12="http://schemas.xmlsoap.org/wsdl/soap12/"
    xmlns:xsd="http://www.w3.org/2001/XMLSchema"
    xmlns="http://schemas.xmlsoap.org/wsdl/">

    <types>
        <xsd:schema targetNamespace="%[1]s">
            <xsd:element name="GetInfoRequest">
                <xsd:complexType />
            </xsd:element>
            <xsd:element name="GetInfoResponse">
                <xsd:complexType>
                    <xsd:sequence>
                        <xsd:element name="id" type="xsd:string" />
                        <xsd:element name="name" type="xsd:string" />
                        <xsd:element name="version" type="xsd:string" />
                    </xsd:sequence>
                </xsd:complexType>
            </xsd:element>
        </xsd:schema>
        <xsd:schema targetNamespace="%[2]s">
            <xsd:element name="GetAccountRequest">
                <xsd:complexType>
                    <xsd:sequence>
                        <xsd:element name="account">
                            <xsd:complexType>
                                <xsd:simpleContent>
                                    <xsd:extension base="xsd:string">
                                        <xsd:attribute name="by" type="xsd:string" />
                                    </xsd:extension>
                                </xsd:simpleContent>
                            </xsd:complexType>
                        </xsd:element>
                    </xsd:sequence>
                </xsd:complexType>
            </xsd:element>
            <xsd:element name="GetAccountResponse" type="xsd:anyType" />
        </xsd:schema>
    </types>

    <message name="GetInfoRequest">
        <part name="parameters" element="tns:GetInfoRequest" />
    </message>
    <message name="GetInfoResponse">
        <part name="parameters" element="tns:GetInfoResponse" />
    </message>
    <message name="GetAccountRequest">
        <part name="parameters" element="adm:GetAccountRequest" />
    </message>
    <message name="GetAccountResponse">
        <part name="parameters" element="adm:GetAccountResponse" />
    </message>

    <portType name="CSFEPortType">
        <operation name="GetInfo">
            <input message="tns:GetInfoRequest" />
            <output message="tns:GetInfoResponse" />
        </operation>
        <operation name="GetAccount">
            <input message="tns:GetAccountRequest" />
            <output message="tns:GetAccountResponse" />
        </operation>
    </portType>

    <binding name="CSFEBinding" type="tns:CSFEPortType">
        <soap12:binding style="document" transport="http://schemas.xmlsoap.org/soap/http" />
        <operation name="GetInfo">
            <soap12:operation soapAction="" />
            <input><soap12:body use="literal" /></input>
            <output><soap12:body use="literal" /></output>
        </operation>
        <operation name="GetAccount">
            <soap12:operation soapAction="" />
            <input><soap12:body use="literal" /></input>
            <output><soap12:body use="literal" /></output>
        </operation>
    </binding>

    <service name="MockCSFEService">
        <port name="CSFEPort" binding="tns:CSFEBinding">
            <soap12:address location="http://localhost:%[3]d%[4]s" />
        </port>
    </service>
</definitions>`, consts.ACCOUNT_NAMESPACE, consts.ADMIN_NAMESPACE, port, consts.SOAP_PATH)
}
